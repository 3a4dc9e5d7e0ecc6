package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/speaker-match-api/internal/models"
)

var teacherRowColumns = []string{"id", "user_id", "full_name", "email", "school", "phone", "city", "state", "grade_levels", "subjects", "created_at", "updated_at"}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "u1", "Teacher A", "a@example.com", "Lincoln High", nil, "Buffalo", "NY", "{\"High School\"}", "{Physics,Math}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1 ORDER BY t.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"High School"}, list[0].GradeLevels)
	assert.Equal(t, []string{"Physics", "Math"}, list[0].Subjects)
	assert.Nil(t, list[0].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "u1", "Teacher A", "a@example.com", "Lincoln High", "555-0100", "Buffalo", "NY", "{}", "{}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.user_id = $1")).WithArgs("u1").WillReturnRows(rows)

	teacher, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, teacher.Phone)
	assert.Equal(t, "555-0100", *teacher.Phone)
	assert.Equal(t, []string{}, teacher.GradeLevels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	created := time.Now().Add(-time.Hour).UTC()
	mock.ExpectQuery("INSERT INTO teachers .* ON CONFLICT \\(user_id\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "u1", "Lincoln High", sqlmock.AnyArg(), "Buffalo", "NY", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing", created))

	teacher := &models.Teacher{UserID: "u1", School: "Lincoln High", City: "Buffalo", State: "NY"}
	require.NoError(t, repo.Upsert(context.Background(), teacher))
	assert.Equal(t, "existing", teacher.ID)
	assert.Equal(t, created, teacher.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
