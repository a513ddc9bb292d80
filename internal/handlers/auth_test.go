package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"hospital-scheduling-server/internal/config"
)

func newAuthRouter(h *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func authConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}
}

func TestRegister(t *testing.T) {
	body := map[string]string{
		"firstName": "Ana",
		"lastName":  "Kovač",
		"email":     "ana@example.com",
		"password":  "correct-horse",
	}

	t.Run("creates user and patient profile", func(t *testing.T) {
		db, mock := newMockDB(t)
		r := newAuthRouter(NewAuthHandler(db, authConfig()))

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `patients`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := do(r, http.MethodPost, "/auth/register", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"patient"`)
		assert.NotContains(t, w.Body.String(), "correct-horse")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		r := newAuthRouter(NewAuthHandler(db, authConfig()))

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `users`").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ana@example.com' for key 'users.idx_users_email'"})
		mock.ExpectRollback()

		w := do(r, http.MethodPost, "/auth/register", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short password", func(t *testing.T) {
		db, _ := newMockDB(t)
		r := newAuthRouter(NewAuthHandler(db, authConfig()))

		bad := map[string]string{"firstName": "A", "lastName": "B", "email": "a@b.co", "password": "short"}
		w := do(r, http.MethodPost, "/auth/register", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin_UnknownEmail(t *testing.T) {
	db, mock := newMockDB(t)
	r := newAuthRouter(NewAuthHandler(db, authConfig()))

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := do(r, http.MethodPost, "/auth/login", map[string]string{"email": "who@example.com", "password": "whatever1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
