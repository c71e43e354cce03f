package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role constants
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleExecutive  = "executive"
	RoleUser       = "user"
)

// User status constants
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// Hosting status constants (domains and tenant databases)
const (
	HostingActive    = "active"
	HostingExpired   = "expired"
	HostingSuspended = "suspended"
)

// Domain type constants
const (
	DomainSubdomain = "subdomain"
	DomainCustom    = "custom"
)

// Payment status constants
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// Payment method constants
const (
	MethodBkash  = "bkash"
	MethodNagad  = "nagad"
	MethodRocket = "rocket"
	MethodBank   = "bank"
	MethodCard   = "card"
)

// Payment type constants
const (
	PaymentSubscription = "subscription"
	PaymentRenewal      = "renewal"
	PaymentExtend       = "extend"
)

// Renewal period units
const (
	PeriodDays   = "days"
	PeriodMonths = "months"
)

// Commission constants
const (
	CommissionPending   = "pending"
	CommissionPaid      = "paid"
	CommissionCancelled = "cancelled"

	CommissionPercentage = "percentage"
	CommissionFixed      = "fixed"
)

// Email log status constants
const (
	EmailSent   = "sent"
	EmailFailed = "failed"
)

// Domain types

type User struct {
	ID                   string          `db:"id" json:"id"`
	FullName             string          `db:"full_name" json:"full_name"`
	Email                string          `db:"email" json:"email"`
	Phone                string          `db:"phone" json:"phone"`
	PasswordHash         *string         `db:"password" json:"-"` // Never expose in JSON
	Role                 string          `db:"role" json:"role"`
	Status               string          `db:"status" json:"status"`
	ReferenceCode        *string         `db:"reference_code" json:"reference_code,omitempty"`
	ReferredBy           *string         `db:"referred_by" json:"referred_by,omitempty"`
	CommissionPercentage decimal.Decimal `db:"commission_percentage" json:"commission_percentage"`
	CommissionFixed      decimal.Decimal `db:"commission_fixed" json:"commission_fixed"`
	CommissionType       string          `db:"commission_type" json:"commission_type"`
	PasswordResetToken   *string         `db:"password_reset_token" json:"-"`
	PasswordResetExpires *time.Time      `db:"password_reset_expires" json:"-"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account has a usable password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsStaff is true for admin and superadmin accounts.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// ReferredUser is a customer signed up under a referrer, with their hosting.
type ReferredUser struct {
	ID           string     `db:"id" json:"id"`
	FullName     string     `db:"full_name" json:"full_name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DatabaseID   *string    `db:"database_id" json:"database_id,omitempty"`
	DatabaseName *string    `db:"database_name" json:"database_name,omitempty"`
	DomainName   *string    `db:"domain_name" json:"domain_name,omitempty"`
	DomainStatus *string    `db:"domain_status" json:"domain_status,omitempty"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	LastAccessed *time.Time `db:"last_accessed" json:"last_accessed,omitempty"`
}

type ReferenceCode struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	UserID    string    `db:"user_id" json:"user_id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ReferenceCodeDetail struct {
	ReferenceCode
	OwnerName     string `db:"owner_name" json:"owner_name"`
	OwnerEmail    string `db:"owner_email" json:"owner_email"`
	OwnerRole     string `db:"owner_role" json:"owner_role"`
	ReferredCount int    `db:"referred_count" json:"referred_count"`
}

type Domain struct {
	ID           string     `db:"id" json:"id"`
	DomainName   string     `db:"domain_name" json:"domain_name"`
	UserID       string     `db:"user_id" json:"user_id"`
	DatabaseName *string    `db:"database_name" json:"database_name,omitempty"`
	ExpiryDate   time.Time  `db:"expiry_date" json:"expiry_date"`
	DomainType   string     `db:"domain_type" json:"domain_type"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastAccessed *time.Time `db:"last_accessed" json:"last_accessed,omitempty"`
}

// TenantDatabase is a customer database provisioned on the control panel.
type TenantDatabase struct {
	ID           string     `db:"id" json:"id"`
	DatabaseName string     `db:"database_name" json:"database_name"`
	UserID       string     `db:"user_id" json:"user_id"`
	DomainID     *string    `db:"domain_id" json:"domain_id,omitempty"`
	ExpiryDate   time.Time  `db:"expiry_date" json:"expiry_date"`
	LastRenewed  *time.Time `db:"last_renewed" json:"last_renewed,omitempty"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastAccessed *time.Time `db:"last_accessed" json:"last_accessed,omitempty"`
}

type DatabaseDetail struct {
	TenantDatabase
	OwnerName       string  `db:"owner_name" json:"owner_name"`
	OwnerEmail      string  `db:"owner_email" json:"owner_email"`
	OwnerPhone      string  `db:"owner_phone" json:"owner_phone"`
	OwnerReferredBy *string `db:"owner_referred_by" json:"owner_referred_by,omitempty"`
	DomainName      *string `db:"domain_name" json:"domain_name,omitempty"`
	DomainType      *string `db:"domain_type" json:"domain_type,omitempty"`
}

type Payment struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Currency      string          `db:"currency" json:"currency"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	TransactionID *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	Status        string          `db:"status" json:"status"`
	PaymentType   string          `db:"payment_type" json:"payment_type"`
	DatabaseID    *string         `db:"database_id" json:"database_id,omitempty"`
	ReferenceData ReferenceData   `db:"reference_data" json:"reference_data"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type PaymentDetail struct {
	Payment
	UserName     string  `db:"user_name" json:"user_name"`
	UserEmail    string  `db:"user_email" json:"user_email"`
	UserPhone    string  `db:"user_phone" json:"user_phone"`
	DatabaseName *string `db:"database_name" json:"database_name,omitempty"`
	DomainName   *string `db:"domain_name" json:"domain_name,omitempty"`
}

type Commission struct {
	ID               string          `db:"id" json:"id"`
	UserID           string          `db:"user_id" json:"user_id"`
	ReferredUserID   string          `db:"referred_user_id" json:"referred_user_id"`
	PaymentID        string          `db:"payment_id" json:"payment_id"`
	CommissionAmount decimal.Decimal `db:"commission_amount" json:"commission_amount"`
	CommissionType   string          `db:"commission_type" json:"commission_type"`
	Status           string          `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	PaidAt           *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
}

type CommissionDetail struct {
	Commission
	UserName          string          `db:"user_name" json:"user_name"`
	UserEmail         string          `db:"user_email" json:"user_email"`
	ReferredUserName  string          `db:"referred_user_name" json:"referred_user_name"`
	ReferredUserEmail string          `db:"referred_user_email" json:"referred_user_email"`
	PaymentAmount     decimal.Decimal `db:"payment_amount" json:"payment_amount"`
	PaymentMethod     string          `db:"payment_method" json:"payment_method"`
}

type Session struct {
	ID        string    `db:"id" json:"-"`
	UserID    string    `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type EmailLog struct {
	ID           string    `db:"id" json:"id"`
	ToEmail      string    `db:"to_email" json:"to_email"`
	Subject      string    `db:"subject" json:"subject"`
	Body         string    `db:"body" json:"body"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Stats and reports

type UserStats struct {
	Total      int `db:"total" json:"total"`
	Active     int `db:"active" json:"active"`
	Executives int `db:"executives" json:"executives"`
	Admins     int `db:"admins" json:"admins"`
	Customers  int `db:"customers" json:"customers"`
}

type DatabaseStats struct {
	Total        int `db:"total" json:"total"`
	Active       int `db:"active" json:"active"`
	Expired      int `db:"expired" json:"expired"`
	ExpiringSoon int `db:"expiring_soon" json:"expiring_soon"`
}

type MethodCount struct {
	Method string `db:"method" json:"method"`
	Count  int    `db:"count" json:"count"`
}

type PaymentStats struct {
	TotalPayments     int             `json:"total_payments"`
	CompletedPayments int             `json:"completed_payments"`
	PendingPayments   int             `json:"pending_payments"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
	PaymentMethods    []MethodCount   `json:"payment_methods"`
}

type CommissionStats struct {
	TotalCommissions     int             `db:"total_commissions" json:"total_commissions"`
	PaidCommissions      int             `db:"paid_commissions" json:"paid_commissions"`
	PendingCommissions   int             `db:"pending_commissions" json:"pending_commissions"`
	CancelledCommissions int             `db:"cancelled_commissions" json:"cancelled_commissions"`
	TotalAmount          decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount           decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	PendingAmount        decimal.Decimal `db:"pending_amount" json:"pending_amount"`
	CancelledAmount      decimal.Decimal `db:"cancelled_amount" json:"cancelled_amount"`
}

type ReferenceCodeStats struct {
	Total  int `db:"total" json:"total"`
	Active int `db:"active" json:"active"`
	Used   int `db:"used" json:"used"`
}

type MonthlyRevenue struct {
	Month        string          `json:"month"`
	MonthName    string          `json:"month_name"`
	PaymentCount int             `json:"payment_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	AverageOrder decimal.Decimal `json:"average_order"`
}

type TopPayer struct {
	UserID       string          `db:"user_id" json:"user_id"`
	FullName     string          `db:"full_name" json:"full_name"`
	Email        string          `db:"email" json:"email"`
	OrderCount   int             `db:"order_count" json:"order_count"`
	TotalRevenue decimal.Decimal `db:"total_revenue" json:"total_revenue"`
}

type RevenueReport struct {
	MonthlyData  []MonthlyRevenue `json:"monthly_data"`
	TopUsers     []TopPayer       `json:"top_users"`
	AverageOrder decimal.Decimal  `json:"average_order"`
}

// ReferrerCommissionReport is one row of the per-referrer commission report.
type ReferrerCommissionReport struct {
	UserID               string          `db:"user_id" json:"user_id"`
	UserName             string          `db:"user_name" json:"user_name"`
	UserEmail            string          `db:"user_email" json:"user_email"`
	CommissionType       string          `db:"commission_type" json:"commission_type"`
	CommissionPercentage decimal.Decimal `db:"commission_percentage" json:"commission_percentage"`
	CommissionFixed      decimal.Decimal `db:"commission_fixed" json:"commission_fixed"`
	ReferralCount        int             `db:"referral_count" json:"referral_count"`
	CommissionEntries    int             `db:"commission_entries" json:"commission_entries"`
	PaidCommission       decimal.Decimal `db:"paid_commission" json:"paid_commission"`
	PendingCommission    decimal.Decimal `db:"pending_commission" json:"pending_commission"`
	TotalCommission      decimal.Decimal `db:"total_commission" json:"total_commission"`
}

type UserCommissionStats struct {
	TotalCommissions      int             `json:"total_commissions"`
	PaidCommissions       int             `json:"paid_commissions"`
	PendingCommissions    int             `json:"pending_commissions"`
	TotalEarned           decimal.Decimal `json:"total_earned"`
	PendingEarnings       decimal.Decimal `json:"pending_earnings"`
	TotalCommissionAmount decimal.Decimal `json:"total_commission_amount"`
	LatestCommission      *time.Time      `json:"latest_commission,omitempty"`
	FirstCommission       *time.Time      `json:"first_commission,omitempty"`
}

type DailyCommissionSummary struct {
	Date          string          `json:"date"`
	Count         int             `json:"daily_count"`
	Amount        decimal.Decimal `json:"daily_amount"`
	PaidCount     int             `json:"paid_count"`
	PendingCount  int             `json:"pending_count"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

// Request types

type RegisterRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2"`
	Phone          string `json:"phone" validate:"required,min=10"`
	Email          string `json:"email" validate:"required,email"`
	ExpectedDomain string `json:"expected_domain" validate:"required,min=3"`
	ReferenceCode  string `json:"reference_code"`
	DomainType     string `json:"domain_type" validate:"required,oneof=subdomain custom"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type ValidateValueRequest struct {
	Value string `json:"value"`
}

type CreatePaymentRequest struct {
	DatabaseID    string          `json:"database_id" validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" validate:"gte=1"`
	Period        int             `json:"period" validate:"gte=1"`
	PeriodType    string          `json:"period_type" validate:"required,oneof=days months"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=bkash nagad rocket bank"`
	PhoneNumber   string          `json:"phone_number" validate:"required,min=11"`
	TransactionID string          `json:"transaction_id" validate:"required,min=5"`
	PaymentType   string          `json:"payment_type" validate:"omitempty,oneof=renewal extend"`
	ReferenceCode string          `json:"reference_code"`
}

type CreateUserRequest struct {
	FullName             string           `json:"full_name" validate:"required,min=2"`
	Email                string           `json:"email" validate:"required,email"`
	Phone                string           `json:"phone" validate:"required,min=10"`
	Role                 string           `json:"role" validate:"required,oneof=user executive admin"`
	Password             string           `json:"password" validate:"omitempty,min=6"`
	ReferredBy           string           `json:"referred_by" validate:"omitempty,uuid"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage" validate:"omitempty,gte=0,lte=100"`
	CommissionFixed      *decimal.Decimal `json:"commission_fixed" validate:"omitempty,gte=0"`
	CommissionType       string           `json:"commission_type" validate:"omitempty,oneof=percentage fixed"`
}

// UpdateUserRequest only carries the fields an admin may edit.
type UpdateUserRequest struct {
	FullName             *string          `json:"full_name" validate:"omitempty,min=2"`
	Email                *string          `json:"email" validate:"omitempty,email"`
	Phone                *string          `json:"phone" validate:"omitempty,min=10"`
	Status               *string          `json:"status" validate:"omitempty,oneof=active inactive"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage" validate:"omitempty,gte=0,lte=100"`
	CommissionFixed      *decimal.Decimal `json:"commission_fixed" validate:"omitempty,gte=0"`
	CommissionType       *string          `json:"commission_type" validate:"omitempty,oneof=percentage fixed"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=superadmin admin executive user"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type AddDatabaseRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	DatabaseName string `json:"database_name" validate:"required,min=3"`
	ExpiryDate   string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
}

type CreateDatabaseRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	DomainName   string `json:"domain_name" validate:"required,min=3"`
	DatabaseName string `json:"database_name" validate:"required,min=3"`
	ExpiryDays   int    `json:"expiry_days" validate:"gte=1,lte=365"`
}

type RenewDatabaseRequest struct {
	Period     decimal.Decimal `json:"period" validate:"gt=0"`
	PeriodType string          `json:"period_type" validate:"required,oneof=days months"`
}

type EditDomainRequest struct {
	DatabaseID string `json:"database_id" validate:"required"`
	DomainName string `json:"domain_name" validate:"required,min=1"`
	DomainType string `json:"domain_type" validate:"required,oneof=subdomain custom"`
}

type PaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed cancelled"`
	Notes  string `json:"notes"`
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

type CommissionIDsRequest struct {
	IDs []string `json:"commission_ids" validate:"required,min=1,dive,required"`
}

// Response types

type MessageResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Warning []string `json:"warnings,omitempty"`
}

type LoginResponse struct {
	User      User   `json:"user"`
	Dashboard string `json:"dashboard"`
}

type ValidationResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type ReferenceValidationResponse struct {
	Valid        bool   `json:"valid"`
	Message      string `json:"message,omitempty"`
	ReferrerName string `json:"referrer_name,omitempty"`
}

type RegisterResponse struct {
	UserID       string   `json:"user_id"`
	DatabaseID   string   `json:"database_id"`
	DomainName   string   `json:"domain_name"`
	DatabaseName string   `json:"database_name"`
	ExpiryDate   string   `json:"expiry_date"`
	Message      string   `json:"message"`
	Warnings     []string `json:"warnings,omitempty"`
}

type RenewResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	NewExpiryDate string `json:"new_expiry_date"`
}

type ApproveResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Renewed bool     `json:"renewed"`
	Warning []string `json:"warnings,omitempty"`
}

type BulkResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Affected int    `json:"affected"`
}

type Paginated[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginated builds a page envelope; items is never encoded as null.
func NewPaginated[T any](items []T, page, perPage, total int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Paginated[T]{Items: items, Page: page, PerPage: perPage, Total: total, TotalPages: pages}
}

// Error response

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
