package protocol

// SUBSCRIBE (observer -> server)
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Audit asks for AUDIT messages in addition to layout updates.
	Audit bool `json:"audit,omitempty"`
}

// LAYOUT (server -> observer): the full ship picture plus the queued refit tasks.
type LayoutMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	CatalogDigest   string       `json:"catalog_digest"`
	Layout          LayoutObs    `json:"layout"`
	Tasks           []TaskObs    `json:"tasks"`
	Hold            []ItemStack  `json:"hold,omitempty"`
	Housing         []HousingObs `json:"housing,omitempty"`
}

type LayoutObs struct {
	MiddleLength      int          `json:"middle_length"`
	ModulesPerSection int          `json:"modules_per_section"`
	Digest            string       `json:"digest"`
	AuditSeq          uint64       `json:"audit_seq"`
	Sections          []SectionObs `json:"sections"`
}

type SectionObs struct {
	Index   int      `json:"index"`
	Type    string   `json:"type"`
	Modules []string `json:"modules"`
}

type TaskObs struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Scope       string `json:"scope"`
	Anchor      [2]int `json:"anchor"`
	Target      string `json:"target,omitempty"`
	Labour      int    `json:"labour"`
	Description string `json:"description,omitempty"`
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type HousingObs struct {
	Key       int    `json:"key"`
	Loc       [2]int `json:"loc"`
	Capacity  int    `json:"capacity"`
	Occupants int    `json:"occupants"`
}

// AUDIT (server -> observer): one ship mutation.
type AuditMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Entry           AuditObs `json:"entry"`
}

type AuditObs struct {
	Seq    uint64 `json:"seq"`
	Action string `json:"action"`
	Loc    [2]int `json:"loc"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Units  int    `json:"units,omitempty"`
	Jobs   []int  `json:"jobs,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ERROR (server -> observer)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
