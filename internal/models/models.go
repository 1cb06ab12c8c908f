package models

import (
	"time"
)

type Product struct {
	ID             uint              `gorm:"primaryKey;autoIncrement"            json:"id"`
	Name           string            `gorm:"not null;index"                      json:"name"`
	Description    string            `gorm:"not null"                            json:"description"`
	Price          float64           `gorm:"not null;check:price >= 0"           json:"price"`
	Category       string            `gorm:"not null;index"                      json:"category"`
	Stock          int               `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Image          string            `json:"image"`
	Specifications map[string]string `gorm:"serializer:json"                     json:"specifications"`
	IsActive       bool              `gorm:"default:true"                        json:"isActive"`
	CreatedBy      uint              `gorm:"index;not null"                      json:"createdBy"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Customer is the checkout contact block embedded in an order.
type Customer struct {
	Name    string `gorm:"not null"       json:"name"`
	Email   string `gorm:"not null;index" json:"email"`
	Phone   string `gorm:"not null"       json:"phone"`
	Address string `gorm:"not null"       json:"address"`
}

// ProductSnapshot freezes the purchased product at checkout time so later
// catalog edits don't rewrite order history.
type ProductSnapshot struct {
	ExternalID uint    `gorm:"not null" json:"id"`
	Name       string  `gorm:"not null" json:"name"`
	Price      float64 `gorm:"not null" json:"price"`
}

type Order struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	OrderNumber   string          `gorm:"uniqueIndex;not null"              json:"orderNumber"`
	Customer      Customer        `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Product       ProductSnapshot `gorm:"embedded;embeddedPrefix:product_"  json:"product"`
	Quantity      int             `gorm:"not null;check:quantity > 0"       json:"quantity"`
	TotalAmount   float64         `gorm:"not null"                          json:"totalAmount"`
	PaymentMethod string          `gorm:"not null"                          json:"paymentMethod"`
	Status        OrderStatus     `gorm:"not null;default:pending"          json:"status"`
	CreatedBy     uint            `gorm:"index"                             json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Employee struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"not null;index"           json:"name"`
	Email      string    `gorm:"uniqueIndex;not null"     json:"email"`
	Phone      string    `gorm:"not null"                 json:"phone"`
	Role       string    `gorm:"not null"                 json:"role"`
	Department string    `gorm:"not null"                 json:"department"`
	JoinDate   time.Time `gorm:"not null"                 json:"joinDate"`
	Status     string    `gorm:"not null;default:active"  json:"status"`
	Avatar     string    `json:"avatar"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

var ProductCategories = []string{"machinery", "spare_parts", "tools", "equipment", "Electric Motor", "other"}

var PaymentMethods = []string{"upi", "card", "netbanking", "cod"}

var EmployeeRoles = []string{"engineer", "manager", "technician", "sales", "support", "other"}

var EmployeeStatuses = []string{"active", "on-leave", "inactive"}

func ValidProductCategory(c string) bool { return contains(ProductCategories, c) }

func ValidPaymentMethod(m string) bool { return contains(PaymentMethods, m) }

func ValidEmployeeRole(r string) bool { return contains(EmployeeRoles, r) }

func ValidEmployeeStatus(s string) bool { return contains(EmployeeStatuses, s) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
