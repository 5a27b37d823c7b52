package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLikeRepository_AddAndRemove(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"row written", 1, true},
		{"nothing to do", 0, false},
	}

	for _, tt := range tests {
		t.Run("add "+tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewLikeRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (comment_id, user_id) DO NOTHING")).
				WithArgs(int64(1), int64(2)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			tx, _ := db.Beginx()
			got, err := repo.Add(context.Background(), tx, 1, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Add = %v, want %v", got, tt.want)
			}
		})

		t.Run("remove "+tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewLikeRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comment_likes")).
				WithArgs(int64(1), int64(2)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			tx, _ := db.Beginx()
			got, err := repo.Remove(context.Background(), tx, 1, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Remove = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLikeRepository_CheckLikes_FillsEveryID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT comment_id FROM comment_likes")).
		WithArgs(int64(9), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"comment_id"}).AddRow(2))

	got, err := repo.CheckLikes(context.Background(), 9, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[int64]bool{1: false, 2: true, 3: false}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for id, liked := range want {
		if got[id] != liked {
			t.Errorf("liked[%d] = %v, want %v", id, got[id], liked)
		}
	}
}

func TestLikeRepository_CheckLikes_EmptySkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLikeRepository(db)

	got, err := repo.CheckLikes(context.Background(), 9, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected query: %v", err)
	}
}
