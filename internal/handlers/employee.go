package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/logging"
	"github.com/svm-engineering/storefront/internal/models"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
)

const joinDateLayout = "2006-01-02"

type EmployeeHandler struct {
	DB *gorm.DB
}

type employeePayload struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
	JoinDate   string `json:"joinDate"`
	Status     string `json:"status"`
	Avatar     string `json:"avatar"`
}

func (h *EmployeeHandler) ListEmployees(c echo.Context) error {
	var employees []models.Employee
	if err := h.DB.Order("created_at DESC").Find(&employees).Error; err != nil {
		return h.internal(c, "employee.list", err)
	}
	return c.JSON(http.StatusOK, employees)
}

func (h *EmployeeHandler) CreateEmployee(c echo.Context) error {
	var req employeePayload
	if err := c.Bind(&req); err != nil {
		return validationError(c, "Invalid request body", nil)
	}

	if details := requiredEmployeeFields(req); len(details) > 0 {
		return validationError(c, "Missing required fields", details)
	}
	if !emailRe.MatchString(req.Email) {
		return validationError(c, "Invalid email format", echo.Map{
			"email": "Please provide a valid email address",
		})
	}
	if !phoneRe.MatchString(req.Phone) {
		return validationError(c, "Invalid phone format", echo.Map{
			"phone": "Please provide a valid 10-digit phone number",
		})
	}
	role := strings.ToLower(req.Role)
	if !models.ValidEmployeeRole(role) {
		return validationError(c, "Invalid role", echo.Map{
			"role": "Role must be one of: " + strings.Join(models.EmployeeRoles, ", "),
		})
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	if !models.ValidEmployeeStatus(status) {
		return validationError(c, "Invalid status", echo.Map{
			"status": "Status must be one of: " + strings.Join(models.EmployeeStatuses, ", "),
		})
	}
	joinDate, err := parseJoinDate(req.JoinDate)
	if err != nil {
		return validationError(c, "Invalid join date", echo.Map{
			"joinDate": "Please provide a valid date",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if h.emailTaken(email, 0) {
		return duplicateEmail(c)
	}

	employee := models.Employee{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Phone:      req.Phone,
		Role:       role,
		Department: req.Department,
		JoinDate:   joinDate,
		Status:     status,
		Avatar:     req.Avatar,
	}
	if err := h.DB.Create(&employee).Error; err != nil {
		if isUniqueViolation(err) {
			return duplicateEmail(c)
		}
		return h.internal(c, "employee.create", err)
	}

	return c.JSON(http.StatusCreated, employee)
}

// UpdateEmployee applies an allow-listed patch: only known fields, each
// re-validated. Unknown body keys are ignored.
func (h *EmployeeHandler) UpdateEmployee(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid employee id"})
	}

	var employee models.Employee
	if err := h.DB.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Employee not found"})
		}
		return h.internal(c, "employee.update", err)
	}

	var req struct {
		Name       *string `json:"name"`
		Email      *string `json:"email"`
		Phone      *string `json:"phone"`
		Role       *string `json:"role"`
		Department *string `json:"department"`
		JoinDate   *string `json:"joinDate"`
		Status     *string `json:"status"`
		Avatar     *string `json:"avatar"`
	}
	if err := c.Bind(&req); err != nil {
		return validationError(c, "Invalid request body", nil)
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !emailRe.MatchString(email) {
			return validationError(c, "Invalid email format", echo.Map{
				"email": "Please provide a valid email address",
			})
		}
		if h.emailTaken(email, employee.ID) {
			return duplicateEmail(c)
		}
		employee.Email = email
	}
	if req.Phone != nil {
		if !phoneRe.MatchString(*req.Phone) {
			return validationError(c, "Invalid phone format", echo.Map{
				"phone": "Please provide a valid 10-digit phone number",
			})
		}
		employee.Phone = *req.Phone
	}
	if req.Role != nil {
		role := strings.ToLower(*req.Role)
		if !models.ValidEmployeeRole(role) {
			return validationError(c, "Invalid role", echo.Map{
				"role": "Role must be one of: " + strings.Join(models.EmployeeRoles, ", "),
			})
		}
		employee.Role = role
	}
	if req.Status != nil {
		if !models.ValidEmployeeStatus(*req.Status) {
			return validationError(c, "Invalid status", echo.Map{
				"status": "Status must be one of: " + strings.Join(models.EmployeeStatuses, ", "),
			})
		}
		employee.Status = *req.Status
	}
	if req.JoinDate != nil {
		joinDate, err := parseJoinDate(*req.JoinDate)
		if err != nil {
			return validationError(c, "Invalid join date", echo.Map{
				"joinDate": "Please provide a valid date",
			})
		}
		employee.JoinDate = joinDate
	}
	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.Avatar != nil {
		employee.Avatar = *req.Avatar
	}

	if err := h.DB.Save(&employee).Error; err != nil {
		if isUniqueViolation(err) {
			return duplicateEmail(c)
		}
		return h.internal(c, "employee.update", err)
	}

	return c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) DeleteEmployee(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid employee id"})
	}

	var employee models.Employee
	if err := h.DB.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Employee not found"})
		}
		return h.internal(c, "employee.delete", err)
	}

	if err := h.DB.Delete(&employee).Error; err != nil {
		return h.internal(c, "employee.delete", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Employee deleted successfully"})
}

func (h *EmployeeHandler) emailTaken(email string, excludeID uint) bool {
	var existing models.Employee
	q := h.DB.Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	return q.First(&existing).Error == nil
}

func (h *EmployeeHandler) internal(c echo.Context, op string, err error) error {
	logging.FromContext(c.Request().Context()).Error("internal error", "op", op, "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}

func requiredEmployeeFields(req employeePayload) echo.Map {
	details := echo.Map{}
	if req.Name == "" {
		details["name"] = "Name is required"
	}
	if req.Email == "" {
		details["email"] = "Email is required"
	}
	if req.Phone == "" {
		details["phone"] = "Phone is required"
	}
	if req.Role == "" {
		details["role"] = "Role is required"
	}
	if req.Department == "" {
		details["department"] = "Department is required"
	}
	if req.JoinDate == "" {
		details["joinDate"] = "Join date is required"
	}
	return details
}

func parseJoinDate(s string) (time.Time, error) {
	if t, err := time.Parse(joinDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func validationError(c echo.Context, msg string, details echo.Map) error {
	body := echo.Map{"message": msg}
	if len(details) > 0 {
		body["details"] = details
	}
	return c.JSON(http.StatusBadRequest, body)
}

func duplicateEmail(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"message": "Email already exists",
		"details": echo.Map{"email": "This email address is already registered"},
	})
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "duplicate key")
}
