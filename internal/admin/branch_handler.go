package admin

import (
	"errors"
	"strings"

	"restoran-pos/internal/models"
	"restoran-pos/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	InvoicePrefix string `json:"invoice_prefix"`
	CreatedAt     string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Address       string  `json:"address" validate:"max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"` // Opsiyonel
	InvoicePrefix string  `json:"invoice_prefix" validate:"omitempty,alphanum,max=10"`
}

type UpdateBranchRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	InvoicePrefix *string `json:"invoice_prefix" validate:"omitempty,alphanum,max=10"`
}

type CreateBranchUserRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=branch_admin cashier"`
}

type BranchUserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	BranchID  *uint           `json:"branch_id"`
	CreatedAt string          `json:"created_at"`
}

func toBranchResponse(b *models.Branch) BranchResponse {
	return BranchResponse{
		ID:            b.ID,
		Name:          b.Name,
		Address:       b.Address,
		Phone:         b.Phone,
		InvoicePrefix: b.InvoicePrefix,
		CreatedAt:     b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func branchID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz şube ID")
	}
	return uint(id), nil
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

func CreateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
		}

		branch := models.Branch{
			Name:          body.Name,
			Address:       body.Address,
			InvoicePrefix: strings.ToUpper(body.InvoicePrefix),
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.WithContext(c.UserContext()).Create(&branch).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde bir şube zaten var")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şube oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(&branch))
	}
}

func ListBranchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := db.WithContext(c.UserContext()).Order("id").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler listelenemedi")
		}

		res := make([]BranchResponse, 0, len(branches))
		for i := range branches {
			res = append(res, toBranchResponse(&branches[i]))
		}
		return c.JSON(res)
	}
}

func GetBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := branchID(c)
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := db.WithContext(c.UserContext()).First(&branch, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}
		return c.JSON(toBranchResponse(&branch))
	}
}

func UpdateBranchHandler(db *gorm.DB, dir *BranchDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := branchID(c)
		if err != nil {
			return err
		}
		var body UpdateBranchRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}

		var branch models.Branch
		if err := db.WithContext(c.UserContext()).First(&branch, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = *body.Address
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}
		// Önek değişirse sayaç devam eder, eski faturalar aynı kalır
		if body.InvoicePrefix != nil {
			branch.InvoicePrefix = strings.ToUpper(*body.InvoicePrefix)
		}

		if err := db.WithContext(c.UserContext()).Save(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube güncellenemedi")
		}
		if dir != nil {
			dir.Forget(branch.ID)
		}
		return c.JSON(toBranchResponse(&branch))
	}
}

// DeleteBranchHandler kullanıcısı olan şubeyi silmez.
func DeleteBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := branchID(c)
		if err != nil {
			return err
		}

		var users int64
		if err := db.WithContext(c.UserContext()).Model(&models.User{}).
			Where("branch_id = ?", id).Count(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube kullanıcıları sorgulanamadı")
		}
		if users > 0 {
			return fiber.NewError(fiber.StatusConflict, "Şubeye bağlı kullanıcılar var, önce onları kaldırın")
		}

		if err := db.WithContext(c.UserContext()).Delete(&models.Branch{}, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// ŞUBE KULLANICISI OLUŞTURMA
// POST /api/admin/branches/:id/users
// ----------------------------------------

func CreateBranchUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := branchID(c)
		if err != nil {
			return err
		}
		var body CreateBranchUserRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}
		if body.Role == "" {
			body.Role = models.RoleCashier
		}

		var branch models.Branch
		if err := db.WithContext(c.UserContext()).First(&branch, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			PasswordHash: string(hash),
			Role:         body.Role,
			BranchID:     &branch.ID,
		}
		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Bu email zaten kayıtlı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(BranchUserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			BranchID:  user.BranchID,
			CreatedAt: user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/admin/branches/:id/users?role=cashier
func ListBranchUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := branchID(c)
		if err != nil {
			return err
		}

		dbq := db.WithContext(c.UserContext()).Where("branch_id = ?", id)
		if role := models.UserRole(c.Query("role")); role != "" {
			if !role.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol")
			}
			dbq = dbq.Where("role = ?", role)
		}

		var users []models.User
		if err := dbq.Order("created_at DESC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}

		res := make([]BranchUserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, BranchUserResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      u.Role,
				BranchID:  u.BranchID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
