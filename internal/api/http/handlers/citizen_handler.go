package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/service"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const (
	ViewCitizenRegister     = "citizen/register"
	ViewCitizenLogin        = "citizen/login"
	ViewCitizenHome         = "citizen/home"
	ViewCitizenComplaints   = "citizen/my_complaints"
	CitizenLoginPath        = "/login"
	CitizenHomePath         = "/"
	CitizenComplaintsPath   = "/my-complaints"
	complaintSubmittedToast = "Your complaint has been submitted."
)

// CitizenHandler exposes the citizen portal.
type CitizenHandler struct {
	service   *service.CitizenService
	directory *directory.Directory
	cookies   auth.CookieWriter
}

// NewCitizenHandler constructs handler.
func NewCitizenHandler(citizenService *service.CitizenService, dir *directory.Directory, cookies auth.CookieWriter) *CitizenHandler {
	return &CitizenHandler{service: citizenService, directory: dir, cookies: cookies}
}

// RegisterPage GET /register.
func (h *CitizenHandler) RegisterPage(c *fiber.Ctx) error {
	return Render(c, fiber.StatusOK, ViewCitizenRegister, nil, nil)
}

// Register POST /register.
func (h *CitizenHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return Render(c, fiber.StatusBadRequest, ViewCitizenRegister, []string{"Invalid registration form."}, nil)
	}
	account, token, err := h.service.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Contact:  req.Contact,
		Address:  req.Address,
		Password: req.Password,
	})
	if apperrors.HasCode(err, apperrors.CodeValidation) {
		return Render(c, fiber.StatusBadRequest, ViewCitizenRegister, []string{err.Error()},
			fiber.Map{"details": apperrors.ToDomainError(err).Details})
	}
	if err != nil {
		return err
	}
	h.cookies.SetCitizen(c, token)
	return RedirectWithMessage(c, CitizenHomePath, "Welcome, "+account.DisplayName()+".")
}

// LoginPage GET /login.
func (h *CitizenHandler) LoginPage(c *fiber.Ctx) error {
	return Render(c, fiber.StatusOK, ViewCitizenLogin, nil, nil)
}

// Login POST /login.
func (h *CitizenHandler) Login(c *fiber.Ctx) error {
	var req dto.CitizenLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return Render(c, fiber.StatusBadRequest, ViewCitizenLogin, []string{"Invalid login form."}, nil)
	}
	_, token, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if apperrors.HasCode(err, apperrors.CodeInvalidCredentials) {
		return Render(c, fiber.StatusOK, ViewCitizenLogin, []string{err.Error()}, fiber.Map{"username": req.Username})
	}
	if err != nil {
		return err
	}
	h.cookies.SetCitizen(c, token)
	return c.Redirect(CitizenHomePath, fiber.StatusFound)
}

// Logout GET /logout. Authority cookies are left alone.
func (h *CitizenHandler) Logout(c *fiber.Ctx) error {
	h.cookies.ClearCitizen(c)
	return RedirectWithMessage(c, CitizenLoginPath, "You have been logged out.")
}

// Home GET /.
func (h *CitizenHandler) Home(c *fiber.Ctx) error {
	account, err := citizenFrom(c)
	if err != nil {
		return err
	}
	return Render(c, fiber.StatusOK, ViewCitizenHome, nil, h.home(account))
}

// Submit POST /submit-complaint.
func (h *CitizenHandler) Submit(c *fiber.Ctx) error {
	account, err := citizenFrom(c)
	if err != nil {
		return err
	}
	var req dto.SubmitComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return Render(c, fiber.StatusBadRequest, ViewCitizenHome, []string{"Invalid complaint form."}, h.home(account))
	}
	_, err = h.service.SubmitComplaint(c.UserContext(), account, service.ComplaintInput{
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Priority:    req.Priority,
	})
	if apperrors.HasCode(err, apperrors.CodeValidation) {
		return Render(c, fiber.StatusBadRequest, ViewCitizenHome, []string{err.Error()}, h.home(account))
	}
	if err != nil {
		return err
	}
	return RedirectWithMessage(c, CitizenComplaintsPath, complaintSubmittedToast)
}

// MyComplaints GET /my-complaints.
func (h *CitizenHandler) MyComplaints(c *fiber.Ctx) error {
	account, err := citizenFrom(c)
	if err != nil {
		return err
	}
	complaints, err := h.service.MyComplaints(c.UserContext(), account)
	if err != nil {
		return err
	}
	return Render(c, fiber.StatusOK, ViewCitizenComplaints, nil, fiber.Map{
		"complaints": complaintSummaries(h.directory, complaints),
	})
}

func (h *CitizenHandler) home(account *domain.Account) dto.CitizenHomeResponse {
	return dto.CitizenHomeResponse{
		Account:    accountResponse(account),
		Categories: h.directory.Categories(),
		Priorities: h.directory.Priorities(),
	}
}

func citizenFrom(c *fiber.Ctx) (*domain.Account, error) {
	account, ok := auth.CitizenFromContext(c)
	if !ok {
		return nil, apperrors.NewTokenInvalid(nil)
	}
	return account, nil
}
