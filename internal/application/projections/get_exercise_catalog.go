package projections

import (
	"bytes"
	"context"
	"html/template"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in descriptions is not passed through.
var mdRenderer = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

// renderMarkdown converts markdown to HTML, falling back to escaped text.
func renderMarkdown(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// GetExerciseCatalogQuery carries input for the catalog query.
type GetExerciseCatalogQuery struct {
	IncludeArchived bool
	Category        string
}

// GetExerciseCatalogDeps holds dependencies for the catalog query.
type GetExerciseCatalogDeps struct {
	ExerciseStore ExerciseStore
}

// CatalogEntry is an exercise with its rendered description.
type CatalogEntry struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Category        string        `json:"category,omitempty"`
	Description     string        `json:"description,omitempty"`
	DescriptionHTML template.HTML `json:"descriptionHtml,omitempty"`
	DefaultSets     int           `json:"defaultSets,omitempty"`
	DefaultReps     int           `json:"defaultReps,omitempty"`
	Archived        bool          `json:"archived,omitempty"`
}

// CatalogCategory groups entries sharing a category.
type CatalogCategory struct {
	Name      string         `json:"name"`
	Exercises []CatalogEntry `json:"exercises"`
}

// ExerciseCatalogResult carries the grouped catalog.
type ExerciseCatalogResult struct {
	Categories []CatalogCategory `json:"categories"`
	Total      int               `json:"total"`
}

const uncategorized = "other"

// QueryGetExerciseCatalog groups the catalog by category, categories sorted by
// name with uncategorized entries last.
func QueryGetExerciseCatalog(ctx context.Context, query GetExerciseCatalogQuery, deps GetExerciseCatalogDeps) (ExerciseCatalogResult, error) {
	exercises, err := deps.ExerciseStore.List(ctx, query.IncludeArchived)
	if err != nil {
		return ExerciseCatalogResult{}, err
	}
	filter := strings.ToLower(strings.TrimSpace(query.Category))

	groups := map[string][]CatalogEntry{}
	var res ExerciseCatalogResult
	for _, e := range exercises {
		cat := strings.ToLower(strings.TrimSpace(e.Category))
		if cat == "" {
			cat = uncategorized
		}
		if filter != "" && cat != filter {
			continue
		}
		groups[cat] = append(groups[cat], CatalogEntry{
			ID:              e.ID,
			Name:            e.Name,
			Category:        e.Category,
			Description:     e.Description,
			DescriptionHTML: renderMarkdown(e.Description),
			DefaultSets:     e.DefaultSets,
			DefaultReps:     e.DefaultReps,
			Archived:        e.Archived,
		})
		res.Total++
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if (a == uncategorized) != (b == uncategorized) {
			if a == uncategorized {
				return 1
			}
			return -1
		}
		return strings.Compare(a, b)
	})
	for _, name := range names {
		res.Categories = append(res.Categories, CatalogCategory{Name: name, Exercises: groups[name]})
	}
	return res, nil
}
