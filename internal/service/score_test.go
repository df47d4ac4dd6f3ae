package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"log/slog"
	"os"

	"github.com/kidslearn/api/internal/apperror"
	"github.com/kidslearn/api/internal/model"
)

// mockScoreRepo is an in-memory repository.ScoreRepository. It mirrors the
// real ranking rules (score desc, insertion order on ties) so service tests
// stay honest without touching SQLite.
type mockScoreRepo struct {
	scores  []model.Score
	nextID  int
	saveErr error
}

func (m *mockScoreRepo) Save(_ context.Context, score *model.Score) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.nextID++
	score.ID = fmt.Sprintf("mock-%04d", m.nextID)
	m.scores = append(m.scores, *score)
	return nil
}

func (m *mockScoreRepo) ListTop(_ context.Context, limit int) ([]model.Score, error) {
	result := make([]model.Score, len(m.scores))
	copy(result, m.scores)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func newTestScoreService(t *testing.T) (*ScoreService, *mockScoreRepo) {
	t.Helper()
	repo := &mockScoreRepo{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewScoreService(repo, logger), repo
}

func TestSaveScore_Success(t *testing.T) {
	svc, _ := newTestScoreService(t)

	record, err := svc.Save(context.Background(), "Mia", 75, "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.ID == "" {
		t.Error("expected the record to have an ID")
	}
	if record.Name != "Mia" || record.Score != 75 {
		t.Errorf("record = (%s, %d), want (Mia, 75)", record.Name, record.Score)
	}
}

func TestSaveScore_TrimsName(t *testing.T) {
	svc, _ := newTestScoreService(t)

	record, err := svc.Save(context.Background(), "  Leo  ", 90, "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.Name != "Leo" {
		t.Errorf("Name = %q, want trimmed %q", record.Name, "Leo")
	}
}

func TestSaveScore_EmptyName(t *testing.T) {
	svc, _ := newTestScoreService(t)

	_, err := svc.Save(context.Background(), "   ", 50, "")
	if err == nil {
		t.Fatal("Save() should reject a blank name")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestSaveScore_NameTooLong(t *testing.T) {
	svc, _ := newTestScoreService(t)

	_, err := svc.Save(context.Background(), strings.Repeat("a", MaxScoreNameLength+1), 50, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestSaveScore_OutOfRange(t *testing.T) {
	svc, _ := newTestScoreService(t)

	for _, bad := range []int{-1, 101, 1000} {
		_, err := svc.Save(context.Background(), "Mia", bad, "")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Save(score=%d) error = %v, want ErrValidation", bad, err)
		}
	}

	// Boundary values are fine.
	for _, ok := range []int{0, 100} {
		if _, err := svc.Save(context.Background(), "Mia", ok, ""); err != nil {
			t.Errorf("Save(score=%d) error = %v, want nil", ok, err)
		}
	}
}

func TestSaveScore_KeepsAttribution(t *testing.T) {
	svc, repo := newTestScoreService(t)

	_, err := svc.Save(context.Background(), "Mia", 80, "user-42")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if repo.scores[0].UserID != "user-42" {
		t.Errorf("stored UserID = %q, want %q", repo.scores[0].UserID, "user-42")
	}
}

func TestSaveScore_RepositoryFailureIsWrapped(t *testing.T) {
	svc, repo := newTestScoreService(t)
	repo.saveErr = errors.New("disk full")

	_, err := svc.Save(context.Background(), "Mia", 75, "")
	if err == nil {
		t.Fatal("Save() should surface the repository failure")
	}
}

func TestListTop_TieOrder(t *testing.T) {
	svc, _ := newTestScoreService(t)
	ctx := context.Background()

	svc.Save(ctx, "Mia", 75, "")
	svc.Save(ctx, "Leo", 90, "")
	svc.Save(ctx, "Ana", 90, "")

	top, err := svc.ListTop(ctx, 3)
	if err != nil {
		t.Fatalf("ListTop() error = %v", err)
	}

	got := make([]string, len(top))
	for i, s := range top {
		got[i] = fmt.Sprintf("%s:%d", s.Name, s.Score)
	}
	want := "Leo:90 Ana:90 Mia:75"
	if strings.Join(got, " ") != want {
		t.Errorf("ListTop() = %v, want %s", got, want)
	}
}

func TestListTop_ClampsLimit(t *testing.T) {
	svc, _ := newTestScoreService(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		svc.Save(ctx, "kid", i*5, "")
	}

	// Zero and negative fall back to the default.
	top, err := svc.ListTop(ctx, 0)
	if err != nil {
		t.Fatalf("ListTop(0) error = %v", err)
	}
	if len(top) != DefaultTopLimit {
		t.Errorf("ListTop(0) returned %d, want default %d", len(top), DefaultTopLimit)
	}

	if _, err := svc.ListTop(ctx, -3); err != nil {
		t.Errorf("ListTop(-3) error = %v", err)
	}
	if _, err := svc.ListTop(ctx, MaxTopLimit*10); err != nil {
		t.Errorf("ListTop(huge) error = %v", err)
	}
}
