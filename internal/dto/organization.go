package dto

import (
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
)

// OrganizationDTO is an organization in API responses. InviteCode is only
// filled for owners.
type OrganizationDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code,omitempty"`
}

type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.OrganizationRole `json:"role"`
}

type OrganizationMemberDTO struct {
	User     UserDTO                 `json:"user"`
	Role     models.OrganizationRole `json:"role"`
	JoinedAt time.Time               `json:"joined_at"`
}

// OrganizationDetailDTO is what GET /organizations/:id returns: the tenant,
// who belongs to it, and the projects time can be booked against.
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members          []OrganizationMemberDTO `json:"members"`
	Projects         []ProjectDTO            `json:"projects"`
	BillableProjects int                     `json:"billable_projects"`
	YourRole         models.OrganizationRole `json:"your_role"`
}

func ToOrganizationDTO(org models.Organization, includeInviteCode bool) OrganizationDTO {
	out := OrganizationDTO{
		ID:   org.ID,
		Name: org.Name,
	}
	if includeInviteCode {
		out.InviteCode = org.InviteCode
	}
	return out
}

// ToOrganizationWithRoleDTO expects member.Organization to be preloaded.
func ToOrganizationWithRoleDTO(member models.OrganizationMember) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization, member.IsOwner()),
		Role:            member.Role,
	}
}

func ToOrganizationMemberDTO(member models.OrganizationMember) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToOrganizationDetailDTO uses org.Projects as loaded; the invite code is
// included only when yourRole is owner.
func ToOrganizationDetailDTO(org models.Organization, members []models.OrganizationMember, yourRole models.OrganizationRole) OrganizationDetailDTO {
	memberDTOs := make([]OrganizationMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToOrganizationMemberDTO(member)
	}

	billable := 0
	for _, p := range org.Projects {
		if p.IsBillable {
			billable++
		}
	}

	return OrganizationDetailDTO{
		OrganizationDTO:  ToOrganizationDTO(org, yourRole == models.RoleOwner),
		Members:          memberDTOs,
		Projects:         ToProjectDTOs(org.Projects),
		BillableProjects: billable,
		YourRole:         yourRole,
	}
}
