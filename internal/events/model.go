// Package events decodes the JSON:API documents Bugcrowd posts to the webhook
// endpoint and resolves the auxiliary resource each event is about.
//
// A document carries one primary resource (the activity record: its key names
// the event, its attributes.data holds the event-specific change data) and an
// ordered list of included resources. Only the included entry describing the
// submission or blocker the activity concerns is used downstream; see
// ResolveTarget.
package events

// EventKey is the dotted event identifier carried in data.attributes.key,
// e.g. "submission.created".
type EventKey string

const (
	KeyBlockerCreated    EventKey = "blocker.created"
	KeyBlockerUpdated    EventKey = "blocker.updated"
	KeySubmissionCreated EventKey = "submission.created"
	KeySubmissionUpdated EventKey = "submission.updated"
)

// Known blocked_by actor classes. The upstream set is open; anything else is
// treated as an unknown creator.
const (
	BlockedByOperations = "bugcrowd_operations"
	BlockedByResearcher = "researcher"
	BlockedByCustomer   = "customer"
)

// WebhookEvent is the top-level document.
type WebhookEvent struct {
	Data     PrimaryResource    `json:"data"`
	Included []IncludedResource `json:"included"`
}

// PrimaryResource is the subject of the event. ID, Type and Attributes.Key are
// required; a document missing any of them is malformed.
type PrimaryResource struct {
	ID            string            `json:"id" validate:"required"`
	Type          string            `json:"type" validate:"required"`
	Attributes    *Attributes       `json:"attributes" validate:"required"`
	Relationships *Relationships    `json:"relationships,omitempty"`
	Links         map[string]string `json:"links"`
}

// Attributes of the primary resource.
type Attributes struct {
	CreatedAt string     `json:"created_at,omitempty"`
	Key       EventKey   `json:"key" validate:"required"`
	Data      ChangeData `json:"data"`
}

// ChangeData is the variant payload under attributes.data. Which fields are
// populated depends on the event key; every field is optional.
//
// Collection fields here and below are encoded without omitempty: a nil
// collection encodes as null and an empty one as {} or [], so Encode keeps
// them apart.
type ChangeData struct {
	Source          *string           `json:"source,omitempty"`
	CurrentSubstate *string           `json:"current_substate,omitempty"`
	BlockedBy       *string           `json:"blocked_by,omitempty"`
	Changes         map[string]Change `json:"changes"`
	DuplicateIDs    []string          `json:"duplicate_ids"`
}

// Relationships of the primary resource.
type Relationships struct {
	Actor    *Relation `json:"actor,omitempty"`
	Resource *Relation `json:"resource,omitempty"`
}

// Relation is a JSON:API relationship object.
type Relation struct {
	Data  ResourceIdentifier `json:"data"`
	Links *RelationLinks     `json:"links"`
}

// RelationLinks holds the "related" link map of a relationship.
type RelationLinks struct {
	Related map[string]string `json:"related"`
}

// ResourceIdentifier is a JSON:API {type, id} pair.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// IncludedResource is an auxiliary entity bundled with the event. The zero
// value is meaningful: it is what ResolveTarget returns when the upstream
// omitted the expected entry.
type IncludedResource struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Links         map[string]string      `json:"links"`
	Attributes    IncludedAttributes     `json:"attributes"`
	Relationships *IncludedRelationships `json:"relationships,omitempty"`
}

// IncludedRelationships links a blocker (or other included entity) to the
// submission it belongs to.
type IncludedRelationships struct {
	Resource *Relation `json:"resource,omitempty"`
}

// ResourceID returns the id of the related resource, and whether the
// relationship chain was present at all. It distinguishes "no relationships"
// from "relationships without a resource" for the link builder.
func (r IncludedResource) ResourceID() (id string, hasRelationships bool) {
	if r.Relationships == nil {
		return "", false
	}
	if r.Relationships.Resource == nil {
		return "", true
	}
	return r.Relationships.Resource.Data.ID, true
}

// IncludedAttributes covers the submission and user attributes Bugcrowd sends.
// Only Title and Severity drive message building.
type IncludedAttributes struct {
	Name                                *string        `json:"name,omitempty"`
	Email                               *string        `json:"email,omitempty"`
	Staff                               *bool          `json:"staff,omitempty"`
	BugURL                              *string        `json:"bug_url,omitempty"`
	CustomFields                        map[string]any `json:"custom_fields"`
	Description                         *string        `json:"description,omitempty"`
	Duplication                         *bool          `json:"duplication,omitempty"`
	ExtraInfo                           *string        `json:"extra_info,omitempty"`
	HTTPRequest                         *string        `json:"http_request,omitempty"`
	LastTransitionedToInformationalAt   *string        `json:"last_transitioned_to_informational_at,omitempty"`
	LastTransitionedToNotApplicableAt   *string        `json:"last_transitioned_to_not_applicable_at,omitempty"`
	LastTransitionedToNotReproducibleAt *string        `json:"last_transitioned_to_not_reproducible_at,omitempty"`
	LastTransitionedToOutOfScopeAt      *string        `json:"last_transitioned_to_out_of_scope_at,omitempty"`
	LastTransitionedToResolvedAt        *string        `json:"last_transitioned_to_resolved_at,omitempty"`
	LastTransitionedToTriagedAt         *string        `json:"last_transitioned_to_triaged_at,omitempty"`
	LastTransitionedToUnresolvedAt      *string        `json:"last_transitioned_to_unresolved_at,omitempty"`
	RemediationAdvice                   *string        `json:"remediation_advice,omitempty"`
	Severity                            *uint8         `json:"severity,omitempty"`
	Source                              *string        `json:"source,omitempty"`
	State                               *string        `json:"state,omitempty"`
	SubmittedAt                         *string        `json:"submitted_at,omitempty"`
	Title                               *string        `json:"title,omitempty"`
	VRTID                               *string        `json:"vrt_id,omitempty"`
	VRTVersion                          *string        `json:"vrt_version,omitempty"`
	VulnerabilityReferences             *string        `json:"vulnerability_references,omitempty"`
}
