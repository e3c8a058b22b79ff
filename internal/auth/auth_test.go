package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func uintPtr(v uint) *uint { return &v }

func TestGenerateAndParseToken(t *testing.T) {
	user := &models.User{ID: 7, Name: "Kasiyer", Email: "k@example.com", Role: models.RoleCashier, BranchID: uintPtr(3)}

	token, err := GenerateToken(testSecret, user)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Kasiyer", claims.Name)
	assert.Equal(t, models.RoleCashier, claims.Role)
	require.NotNil(t, claims.BranchID)
	assert.Equal(t, uint(3), *claims.BranchID)

	_, err = ParseToken("another-secret-another-secret-123", token)
	assert.Error(t, err)
}

func TestActorBranchFor(t *testing.T) {
	cashier := Actor{UserID: 1, Role: models.RoleCashier, BranchID: uintPtr(5)}
	id, err := cashier.BranchFor(uintPtr(9))
	require.NoError(t, err)
	assert.Equal(t, uint(5), id, "şube kullanıcısı başka şube seçemez")

	_, err = Actor{UserID: 2, Role: models.RoleBranchAdmin}.BranchFor(nil)
	assert.Error(t, err)

	super := Actor{UserID: 3, Role: models.RoleSuperAdmin}
	_, err = super.BranchFor(nil)
	assert.Error(t, err)
	id, err = super.BranchFor(uintPtr(9))
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(JWTMiddleware(testSecret))
	app.Get("/me", RequireRole(models.RoleBranchAdmin), func(c *fiber.Ctx) error {
		a, err := ActorFrom(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"name": a.Name, "branch": *a.BranchID})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	cashierToken, err := GenerateToken(testSecret, &models.User{ID: 1, Role: models.RoleCashier, BranchID: uintPtr(2)})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+cashierToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	adminToken, err := GenerateToken(testSecret, &models.User{ID: 2, Name: "Mehmet", Role: models.RoleBranchAdmin, BranchID: uintPtr(2)})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginLimiter(2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}
