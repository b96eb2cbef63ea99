package events

// targetIndex is the position Bugcrowd documents for the target resource in
// the included array. Index 0 is usually the acting user.
const targetIndex = 1

// Resolver picks the included resource an event is about.
type Resolver interface {
	Resolve(event *WebhookEvent) IncludedResource
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(event *WebhookEvent) IncludedResource

// Resolve calls f(event).
func (f ResolverFunc) Resolve(event *WebhookEvent) IncludedResource { return f(event) }

// DefaultResolver is the resolver used by the dispatch router.
var DefaultResolver Resolver = ResolverFunc(ResolveTarget)

// ResolveTarget returns the target included resource, or the zero
// IncludedResource when the document carries fewer than two included entries.
//
// With two or more entries it first looks for the entry whose (type, id)
// matches the primary resource's relationships.resource; when the upstream
// does not expose that relationship, or nothing matches, it falls back to the
// positional entry at index 1. It never panics on short or empty lists.
func ResolveTarget(event *WebhookEvent) IncludedResource {
	if event == nil || len(event.Included) <= targetIndex {
		return IncludedResource{}
	}

	if ref, ok := primaryResourceRef(event); ok {
		for _, inc := range event.Included {
			if inc.Type == ref.Type && inc.ID == ref.ID {
				return inc
			}
		}
	}

	return event.Included[targetIndex]
}

func primaryResourceRef(event *WebhookEvent) (ResourceIdentifier, bool) {
	rel := event.Data.Relationships
	if rel == nil || rel.Resource == nil {
		return ResourceIdentifier{}, false
	}
	ref := rel.Resource.Data
	if ref.Type == "" || ref.ID == "" {
		return ResourceIdentifier{}, false
	}
	return ref, true
}
