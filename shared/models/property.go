package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTenantNotFound is returned when no tenant matches the given flat number
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrDuplicateFlat is returned when a flat number is already taken within the property
	ErrDuplicateFlat = errors.New("flat number already exists for this property")
	// ErrEntryNotFound is returned when no embedded entry matches the given id
	ErrEntryNotFound = errors.New("entry not found")
)

// PaymentStatus represents a tenant's current rent status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// IsValid reports whether the status is one of the allowed values
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// PaymentOutcome represents the result recorded for a single payment
type PaymentOutcome string

const (
	PaymentOutcomePaid   PaymentOutcome = "Paid"
	PaymentOutcomeFailed PaymentOutcome = "Failed"
)

// MaintenanceStatus represents the workflow state of a maintenance request
type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "Pending"
	MaintenanceInProgress MaintenanceStatus = "In Progress"
	MaintenanceResolved   MaintenanceStatus = "Resolved"
)

// IsValid reports whether the status is one of the allowed values
func (s MaintenanceStatus) IsValid() bool {
	return s == MaintenancePending || s == MaintenanceInProgress || s == MaintenanceResolved
}

// Property is the aggregate root: tenants and maintenance requests are embedded
// documents with no lifecycle outside their parent row. Every nested mutation
// loads the whole aggregate, rewrites the affected array in memory and persists
// the row back in a single write (see shared/store).
type Property struct {
	ID                  uuid.UUID              `json:"id" gorm:"type:uuid;primary_key"`
	Name                string                 `json:"name" gorm:"not null"`
	Location            string                 `json:"location" gorm:"not null"`
	OwnerID             *uuid.UUID             `json:"ownerId,omitempty" gorm:"type:uuid;index"`
	Tenants             TenantList             `json:"tenants" gorm:"type:jsonb"`
	MaintenanceRequests MaintenanceRequestList `json:"maintenanceRequests" gorm:"type:jsonb"`
	Version             int64                  `json:"-" gorm:"not null;default:0"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// TableName returns the table name for the Property model
func (Property) TableName() string {
	return "properties"
}

// Tenant is an occupant embedded in a Property. FlatNo is the external
// addressing key used by the REST routes; ID is assigned once at creation and
// never reassigned.
type Tenant struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	FlatNo           string                `json:"flatNo"`
	Username         string                `json:"username"`
	PasswordHash     string                `json:"-"`
	PaymentStatus    PaymentStatus         `json:"paymentStatus"`
	RentAmount       float64               `json:"rentAmount"`
	LastNotify       string                `json:"lastNotify,omitempty"`
	PaymentHistory   []PaymentHistoryEntry `json:"paymentHistory"`
	NotifiedMessages []NotificationMessage `json:"notifiedMessages"`
}

// PaymentHistoryEntry records one rent transaction. Append-only apart from a
// single per-entry deletion path.
type PaymentHistoryEntry struct {
	ID     string         `json:"id"`
	Amount float64        `json:"amount"`
	Date   string         `json:"date"`
	Status PaymentOutcome `json:"status"`
}

// NotificationMessage is a message sent to a tenant by the property owner.
type NotificationMessage struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// MaintenanceRequest is a repair ticket embedded in a Property. TenantID is
// captured at creation so the submitting occupant stays resolvable after the
// tenant record itself is deleted; FlatNo is kept for display and filtering.
type MaintenanceRequest struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenantId,omitempty"`
	FlatNo      string            `json:"flatNo"`
	Description string            `json:"description"`
	Status      MaintenanceStatus `json:"status"`
	Date        string            `json:"date"`
	Remarks     string            `json:"remarks"`
}

// DateOnly is the wire format for all embedded date strings.
const DateOnly = "2006-01-02"

// Today returns the current date in the embedded-document date format.
func Today() string {
	return time.Now().Format(DateOnly)
}

// Tenant returns a pointer into the tenants array for the given flat number.
func (p *Property) Tenant(flatNo string) (*Tenant, bool) {
	for i := range p.Tenants {
		if p.Tenants[i].FlatNo == flatNo {
			return &p.Tenants[i], true
		}
	}
	return nil, false
}

// TenantByID returns a pointer into the tenants array for the given embedded id.
func (p *Property) TenantByID(id string) (*Tenant, bool) {
	for i := range p.Tenants {
		if p.Tenants[i].ID == id {
			return &p.Tenants[i], true
		}
	}
	return nil, false
}

// AddTenant appends a tenant to the aggregate. The flat number must be free;
// a missing id is assigned here and never changes afterwards.
func (p *Property) AddTenant(t Tenant) (*Tenant, error) {
	if _, exists := p.Tenant(t.FlatNo); exists {
		return nil, ErrDuplicateFlat
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.PaymentStatus == "" {
		t.PaymentStatus = PaymentStatusPending
	}
	if t.PaymentHistory == nil {
		t.PaymentHistory = []PaymentHistoryEntry{}
	}
	if t.NotifiedMessages == nil {
		t.NotifiedMessages = []NotificationMessage{}
	}
	p.Tenants = append(p.Tenants, t)
	return &p.Tenants[len(p.Tenants)-1], nil
}

// RemoveTenant rewrites the tenants array without the given flat. Maintenance
// requests referencing the flat are left in place, orphaned.
func (p *Property) RemoveTenant(flatNo string) error {
	kept := make(TenantList, 0, len(p.Tenants))
	removed := false
	for _, t := range p.Tenants {
		if t.FlatNo == flatNo {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return ErrTenantNotFound
	}
	p.Tenants = kept
	return nil
}

// RecordPayment marks the tenant paid and appends a new Paid history entry.
// The append is unconditional: every call records a distinct transaction even
// when the tenant is already in Paid status.
func (p *Property) RecordPayment(flatNo string, amount float64) (*Tenant, error) {
	t, ok := p.Tenant(flatNo)
	if !ok {
		return nil, ErrTenantNotFound
	}
	today := Today()
	t.PaymentStatus = PaymentStatusPaid
	t.LastNotify = today
	t.PaymentHistory = append(t.PaymentHistory, PaymentHistoryEntry{
		ID:     uuid.New().String(),
		Amount: amount,
		Date:   today,
		Status: PaymentOutcomePaid,
	})
	return t, nil
}

// RemovePaymentEntry deletes a single payment history entry by its embedded id.
func (p *Property) RemovePaymentEntry(flatNo, entryID string) error {
	t, ok := p.Tenant(flatNo)
	if !ok {
		return ErrTenantNotFound
	}
	kept := make([]PaymentHistoryEntry, 0, len(t.PaymentHistory))
	removed := false
	for _, e := range t.PaymentHistory {
		if e.ID == entryID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return ErrEntryNotFound
	}
	t.PaymentHistory = kept
	return nil
}

// Notify appends a notification message to the tenant and stamps lastNotify.
func (p *Property) Notify(flatNo, message string) (*Tenant, error) {
	t, ok := p.Tenant(flatNo)
	if !ok {
		return nil, ErrTenantNotFound
	}
	today := Today()
	t.LastNotify = today
	t.NotifiedMessages = append(t.NotifiedMessages, NotificationMessage{
		ID:      uuid.New().String(),
		Date:    today,
		Message: message,
	})
	return t, nil
}

// AddMaintenanceRequest appends a request, assigning its id and capturing the
// submitting tenant's stable id when the flat currently resolves to one.
func (p *Property) AddMaintenanceRequest(req MaintenanceRequest) *MaintenanceRequest {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = MaintenancePending
	}
	if req.Date == "" {
		req.Date = Today()
	}
	if req.TenantID == "" {
		if t, ok := p.Tenant(req.FlatNo); ok {
			req.TenantID = t.ID
		}
	}
	p.MaintenanceRequests = append(p.MaintenanceRequests, req)
	return &p.MaintenanceRequests[len(p.MaintenanceRequests)-1]
}

// MaintenanceRequestByID returns a pointer into the requests array.
func (p *Property) MaintenanceRequestByID(id string) (*MaintenanceRequest, bool) {
	for i := range p.MaintenanceRequests {
		if p.MaintenanceRequests[i].ID == id {
			return &p.MaintenanceRequests[i], true
		}
	}
	return nil, false
}

// RemoveMaintenanceRequest rewrites the requests array without the given id.
func (p *Property) RemoveMaintenanceRequest(id string) error {
	kept := make(MaintenanceRequestList, 0, len(p.MaintenanceRequests))
	removed := false
	for _, r := range p.MaintenanceRequests {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return ErrEntryNotFound
	}
	p.MaintenanceRequests = kept
	return nil
}

// TenantList is the tenants array persisted as one JSONB column so the
// aggregate round-trips as a single document.
type TenantList []Tenant

// tenantDoc carries the password hash into the stored document. The hash is
// excluded from API responses by the json:"-" tag on Tenant and reattached
// here for persistence only.
type tenantDoc struct {
	Tenant
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Value implements driver.Valuer.
func (l TenantList) Value() (driver.Value, error) {
	docs := make([]tenantDoc, len(l))
	for i, t := range l {
		docs[i] = tenantDoc{Tenant: t, PasswordHash: t.PasswordHash}
	}
	return json.Marshal(docs)
}

// Scan implements sql.Scanner.
func (l *TenantList) Scan(src interface{}) error {
	raw, err := jsonbBytes(src)
	if err != nil {
		return fmt.Errorf("tenants column: %w", err)
	}
	if raw == nil {
		*l = TenantList{}
		return nil
	}
	var docs []tenantDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("failed to decode tenants column: %w", err)
	}
	out := make(TenantList, len(docs))
	for i, d := range docs {
		t := d.Tenant
		t.PasswordHash = d.PasswordHash
		out[i] = t
	}
	*l = out
	return nil
}

// MaintenanceRequestList is the maintenance requests array persisted as one
// JSONB column.
type MaintenanceRequestList []MaintenanceRequest

// Value implements driver.Valuer.
func (l MaintenanceRequestList) Value() (driver.Value, error) {
	if l == nil {
		l = MaintenanceRequestList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *MaintenanceRequestList) Scan(src interface{}) error {
	raw, err := jsonbBytes(src)
	if err != nil {
		return fmt.Errorf("maintenance_requests column: %w", err)
	}
	if raw == nil {
		*l = MaintenanceRequestList{}
		return nil
	}
	if err := json.Unmarshal(raw, (*[]MaintenanceRequest)(l)); err != nil {
		return fmt.Errorf("failed to decode maintenance_requests column: %w", err)
	}
	return nil
}

// jsonbBytes normalizes the driver representations of a JSONB column.
func jsonbBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported source type %T", src)
	}
}
