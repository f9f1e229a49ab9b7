package handler

import (
	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toLoginResponse(r *ports.LoginResult) loginResponse {
	return loginResponse{
		AccessToken: r.AccessToken,
		TokenType:   "bearer",
		User: loginUser{
			ID:       r.User.ID,
			Username: r.User.Username,
			Email:    r.User.Email,
			IsAdmin:  r.User.IsAdmin,
		},
	}
}

func toPortfolioResponse(p *domain.Portfolio) portfolioResponse {
	return portfolioResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Detail:      p.Detail,
		Link:        p.Link,
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPortfolioResponses(list []*domain.Portfolio) []portfolioResponse {
	out := make([]portfolioResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPortfolioResponse(p))
	}
	return out
}

func toPortfolioDetail(d ports.PortfolioDetail) portfolioDetailResponse {
	p := d.Portfolio
	return portfolioDetailResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Detail:      p.Detail,
		Link:        p.Link,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		User: portfolioOwner{
			ID:       d.Owner.ID,
			Username: d.Owner.Username,
			Email:    d.Owner.Email,
		},
	}
}

func toPortfolioDetails(list []ports.PortfolioDetail) []portfolioDetailResponse {
	out := make([]portfolioDetailResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toPortfolioDetail(d))
	}
	return out
}

func (r updatePortfolioRequest) toInput() ports.PortfolioInput {
	return ports.PortfolioInput{
		Title:       r.Title,
		Description: r.Description,
		Detail:      r.Detail,
		Link:        r.Link,
	}
}
