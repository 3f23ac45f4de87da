package orchestrators

import (
	"fmt"
	"testing"
	"time"

	"clubhouse/internal/adapters/storage"
	athleteStore "clubhouse/internal/adapters/storage/athlete"
	attendanceStore "clubhouse/internal/adapters/storage/attendance"
	"clubhouse/internal/adapters/storage/docstore"
	exerciseStore "clubhouse/internal/adapters/storage/exercise"
	planStore "clubhouse/internal/adapters/storage/plan"
	logStore "clubhouse/internal/adapters/storage/traininglog"
	userStore "clubhouse/internal/adapters/storage/user"
)

var testTime = time.Date(2026, time.October, 14, 18, 0, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

// seqIDs returns a generator yielding prefix-1, prefix-2, ...
func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// testStores are document stores over one in-memory file API.
type testStores struct {
	api        *storage.MemoryFileAPI
	athletes   *athleteStore.DocumentStore
	attendance *attendanceStore.DocumentStore
	plans      *planStore.DocumentStore
	logs       *logStore.DocumentStore
	exercises  *exerciseStore.DocumentStore
	users      *userStore.DocumentStore
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	api := storage.NewMemoryFileAPI()
	for _, name := range []string{"athletes", "attendance", "plans", "logs", "exercises", "users"} {
		api.Seed(name, name+".json", nil)
	}
	opts := docstore.Options{}
	return &testStores{
		api:        api,
		athletes:   athleteStore.NewDocumentStore(api, "athletes", opts),
		attendance: attendanceStore.NewDocumentStore(api, "attendance", opts),
		plans:      planStore.NewDocumentStore(api, "plans", opts),
		logs:       logStore.NewDocumentStore(api, "logs", opts),
		exercises:  exerciseStore.NewDocumentStore(api, "exercises", opts),
		users:      userStore.NewDocumentStore(api, "users", opts),
	}
}
