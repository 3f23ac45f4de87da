package projections

import (
	"context"
	"strings"
	"testing"

	domainExercise "clubhouse/internal/domain/exercise"
)

func TestQueryGetExerciseCatalog_GroupsAndRenders(t *testing.T) {
	deps := GetExerciseCatalogDeps{ExerciseStore: &fakeExercises{exercises: []domainExercise.Exercise{
		{ID: "squat", Name: "Squat", Category: "Strength", Description: "Keep the **back** straight.\nBreathe."},
		{ID: "plank", Name: "Plank"},
		{ID: "hip", Name: "Hip opener", Category: "mobility"},
		{ID: "old", Name: "Old", Category: "strength", Archived: true},
	}}}
	res, err := QueryGetExerciseCatalog(context.Background(), GetExerciseCatalogQuery{}, deps)
	if err != nil {
		t.Fatalf("QueryGetExerciseCatalog: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("total = %d, want 3", res.Total)
	}
	var names []string
	for _, c := range res.Categories {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "mobility,strength,other" {
		t.Errorf("categories = %s", got)
	}
	html := string(res.Categories[1].Exercises[0].DescriptionHTML)
	if !strings.Contains(html, "<strong>back</strong>") || !strings.Contains(html, "<br") {
		t.Errorf("description html = %q", html)
	}
}

func TestQueryGetExerciseCatalog_FilterAndArchived(t *testing.T) {
	deps := GetExerciseCatalogDeps{ExerciseStore: &fakeExercises{exercises: []domainExercise.Exercise{
		{ID: "squat", Name: "Squat", Category: "strength"},
		{ID: "old", Name: "Old", Category: "strength", Archived: true},
		{ID: "hip", Name: "Hip opener", Category: "mobility"},
	}}}
	res, err := QueryGetExerciseCatalog(context.Background(), GetExerciseCatalogQuery{IncludeArchived: true, Category: "Strength"}, deps)
	if err != nil {
		t.Fatalf("QueryGetExerciseCatalog: %v", err)
	}
	if len(res.Categories) != 1 || len(res.Categories[0].Exercises) != 2 {
		t.Errorf("res = %+v", res)
	}
}

func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	got := string(renderMarkdown("<script>alert(1)</script>\n\nok"))
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html passed through: %q", got)
	}
	if renderMarkdown("  ") != "" {
		t.Error("blank markdown should render empty")
	}
}
