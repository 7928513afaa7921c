package domain

import "time"

// Role is the closed set of account roles. There are no sub-roles; every
// account carries exactly one.
type Role string

const (
	RoleSuperAdmin     Role = "SUPER_ADMIN"
	RoleAdmin          Role = "ADMIN"
	RoleAdminAssistant Role = "ADMIN_ASSISTANT"
	RolePartner        Role = "PARTNER"
	RoleClient         Role = "CLIENT"
	RoleDriver         Role = "DRIVER"
)

// Roles lists every valid role, in privilege order.
var Roles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleAdminAssistant,
	RolePartner,
	RoleClient,
	RoleDriver,
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Region is a Tunisian governorate used as a zone of responsibility for
// ADMIN_ASSISTANT and DRIVER accounts.
type Region string

const (
	RegionAriana     Region = "Ariana"
	RegionBeja       Region = "Béja"
	RegionBenArous   Region = "Ben Arous"
	RegionBizerte    Region = "Bizerte"
	RegionGabes      Region = "Gabès"
	RegionGafsa      Region = "Gafsa"
	RegionJendouba   Region = "Jendouba"
	RegionKairouan   Region = "Kairouan"
	RegionKasserine  Region = "Kasserine"
	RegionKebili     Region = "Kébili"
	RegionKef        Region = "Le Kef"
	RegionMahdia     Region = "Mahdia"
	RegionManouba    Region = "La Manouba"
	RegionMedenine   Region = "Médenine"
	RegionMonastir   Region = "Monastir"
	RegionNabeul     Region = "Nabeul"
	RegionSfax       Region = "Sfax"
	RegionSidiBouzid Region = "Sidi Bouzid"
	RegionSiliana    Region = "Siliana"
	RegionSousse     Region = "Sousse"
	RegionTataouine  Region = "Tataouine"
	RegionTozeur     Region = "Tozeur"
	RegionTunis      Region = "Tunis"
	RegionZaghouan   Region = "Zaghouan"
)

// ClientOnboardingPassword is the fixed initial secret assigned to CLIENT
// accounts created by a PARTNER. Partners hand it to their clients out of
// band; the creation request cannot override it.
const ClientOnboardingPassword = "123"

// Account is the core aggregate. A non-nil DeletedAt marks the account as
// soft-deleted; soft-deleted accounts are excluded from all normal lookups
// and the state is terminal.
type Account struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Image        string     `json:"image,omitempty"`
	CompanyName  string     `json:"company_name,omitempty"`
	GPSPosition  string     `json:"gps_position,omitempty"`
	Zone         Region     `json:"zone_of_responsibility,omitempty"`
	IsValid      bool       `json:"is_valid"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the account may authenticate: not soft-deleted, and
// past the partner validation gate. IsValid is only meaningful for PARTNER;
// every other role is implicitly valid.
func (a *Account) Active() bool {
	if a.DeletedAt != nil {
		return false
	}
	if a.Role == RolePartner {
		return a.IsValid
	}
	return true
}

// AuthContext identifies the authenticated actor of a request. It is built
// once from the verified token claims and passed by value into the
// permission matrix and the lifecycle engine.
type AuthContext struct {
	ActorID      string
	ActorRole    Role
	PartnerValid bool
}
