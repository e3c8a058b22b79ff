package auth

import (
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Actor isteği yapan kullanıcı; vardiya ve sipariş kayıtlarına işlenir.
type Actor struct {
	UserID   uint
	Name     string
	Role     models.UserRole
	BranchID *uint
}

func ActorFrom(c *fiber.Ctx) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	branchID, _ := c.Locals(CtxBranchIDKey).(*uint)

	return Actor{UserID: userID, Name: name, Role: role, BranchID: branchID}, nil
}

// BranchFor işlemin yapılacağı şubeyi çözer. Şube kullanıcıları JWT'deki
// şubeye bağlıdır; super_admin body/query ile branch_id göndermek zorunda.
func (a Actor) BranchFor(requested *uint) (uint, error) {
	if a.Role != models.RoleSuperAdmin {
		if a.BranchID == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return *a.BranchID, nil
	}

	if requested == nil || *requested == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	return *requested, nil
}

// BranchFromQuery ?branch_id= parametresini okuyup BranchFor'a verir.
func BranchFromQuery(c *fiber.Ctx, a Actor) (uint, error) {
	var requested *uint
	if raw := c.Query("branch_id"); raw != "" {
		id := c.QueryInt("branch_id", 0)
		if id <= 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
		}
		v := uint(id)
		requested = &v
	}
	return a.BranchFor(requested)
}

// CanAccess super_admin her şubeye, diğerleri sadece kendi şubesine erişir.
func (a Actor) CanAccess(branchID uint) bool {
	if a.Role == models.RoleSuperAdmin {
		return true
	}
	return a.BranchID != nil && *a.BranchID == branchID
}
