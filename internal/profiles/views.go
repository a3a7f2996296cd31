package profiles

import "github.com/vendora/backend/internal/models"

// Template names the profile variant a client should render. The dispatch
// from role to template lives here and nowhere else; new roles extend the
// switch below instead of scattering role checks through handlers.
type Template string

const (
	TemplateDefault Template = "profile"
	TemplateSeller  Template = "seller_profile"
	TemplateBrand   Template = "brand_profile"
)

// TemplateForRole maps a profile's role to its rendering template. Pure
// function: unknown or missing roles fall through to the default template
// rather than erroring.
func TemplateForRole(role models.Role) Template {
	switch role {
	case models.RolePersonalSeller, models.RoleSeller:
		return TemplateSeller
	case models.RoleBrand, models.RoleCompany:
		return TemplateBrand
	case models.RoleUser, models.RoleAdmin:
		return TemplateDefault
	default:
		return TemplateDefault
	}
}
