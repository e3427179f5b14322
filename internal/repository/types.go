package repository

import "time"

// ── Domain types for the dispatch engine ─────────────────────────────────────

// Status is a client's call outcome. The zero lifecycle state ("new") is
// stored as NULL; StatusNew is the in-process sentinel for it. The NULL
// mapping is confined to the predicate builder and the row scanners here.
type Status string

const (
	StatusNew         Status = "new"
	StatusNoAnswer    Status = "no-answer"
	StatusVoicemail   Status = "voicemail"
	StatusWrongTarget Status = "wrong-target"
	StatusCutOff      Status = "cut-off"
	StatusWrongPerson Status = "wrong-person"
	StatusCallback    Status = "callback"
	StatusTransfer    Status = "transfer"
	StatusClosed      Status = "closed"
)

// statusToDB maps StatusNew to NULL for storage.
func statusToDB(s Status) *string {
	if s == StatusNew || s == "" {
		return nil
	}
	v := string(s)
	return &v
}

// statusFromDB maps a NULL column back to StatusNew.
func statusFromDB(v *string) Status {
	if v == nil {
		return StatusNew
	}
	return Status(*v)
}

// Client is one work item: a contact record a worker can claim, call and
// route onward.
type Client struct {
	ID             int64  `json:"id"`
	PoolID         int64  `json:"pool_id"`
	IsWiki         bool   `json:"is_wiki"`
	AssignedTo     *int64 `json:"assigned_to"`
	Status         Status `json:"call_status"` // StatusNew when unworked
	ReturnPriority bool   `json:"return_priority"`

	CallbackAt    *time.Time `json:"callback_at,omitempty"`
	CallbackNotes *string    `json:"callback_notes,omitempty"`

	TransferredTo    *int64     `json:"transferred_to,omitempty"`
	TransferredNotes *string    `json:"transferred_notes,omitempty"`
	TransferredAt    *time.Time `json:"transferred_at,omitempty"`

	FullName    *string `json:"full_name,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	Region      *string `json:"region,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pool is one imported dataset of clients. Wiki pools have separate
// claim rules.
type Pool struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsWiki    bool      `json:"is_wiki"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CallFilter is an eligibility rule: which pools, which workers and which
// statuses participate in a claim pool.
type CallFilter struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	PoolIDs   []int64   `json:"pool_ids"`
	WorkerIDs []int64   `json:"worker_ids,omitempty"` // nil = applies to every worker
	Statuses  []Status  `json:"statuses,omitempty"`   // nil = no status restriction; may contain StatusNew
	CreatedBy *int64    `json:"created_by,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppliesTo reports whether the filter targets the given worker.
func (f *CallFilter) AppliesTo(workerID int64) bool {
	if f.WorkerIDs == nil {
		return true
	}
	for _, id := range f.WorkerIDs {
		if id == workerID {
			return true
		}
	}
	return false
}

// HistoryEntry is one immutable record in the call history ledger.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	WorkerID   *int64    `json:"worker_id,omitempty"` // nil for system-generated transitions
	Status     Status    `json:"call_status"`
	Notes      *string   `json:"notes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Note is a free-form remark attached to a client.
type Note struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	WorkerID  *int64    `json:"worker_id,omitempty"`
	Text      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusButton is one configured simple-outcome status value.
type StatusButton struct {
	ID        int64   `json:"id"`
	Value     Status  `json:"value"`
	Label     *string `json:"label,omitempty"`
	SortOrder int     `json:"sort_order"`
	IsActive  bool    `json:"is_active"`
}

// ProfileSection names the client card sections a worker can clear.
type ProfileSection string

const (
	SectionCallback ProfileSection = "callback"
	SectionTransfer ProfileSection = "transfer"
)

// ── Claim predicate ──────────────────────────────────────────────────────────

// ClaimOrder selects the candidate ordering within a claim.
type ClaimOrder int

const (
	// OrderFresh: priority-flagged first, then oldest created.
	OrderFresh ClaimOrder = iota
	// OrderRecency: priority-flagged first, then most recently touched,
	// then oldest created.
	OrderRecency
)

// ClaimSpec is the SQL-free description of one claim's eligibility
// predicate, produced by the resolver in the service layer.
type ClaimSpec struct {
	// WorkerID receives ownership of the claimed row.
	WorkerID int64

	// PoolIDs restricts pool membership; empty means unrestricted.
	PoolIDs []int64

	// AnyStatus disables status filtering entirely. When false,
	// IncludeNew and Statuses together define the allowed set;
	// Statuses holds concrete values only (never StatusNew).
	AnyStatus  bool
	IncludeNew bool
	Statuses   []Status

	// Owners lists workers whose prior claim does not exclude a row;
	// unowned rows always qualify.
	Owners []int64

	// ExcludeContactedBy drops rows this worker already has history for.
	ExcludeContactedBy *int64

	// WikiOnly restricts the claim to wiki-pool clients.
	WikiOnly bool

	Order ClaimOrder
}
