package observer

import (
	"homeship.ai/internal/protocol"
	"homeship.ai/internal/sim/crew"
	"homeship.ai/internal/sim/hold"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/tasks"
)

// LayoutFrame renders the ship and its queued tasks. chain, h and roster may be nil.
func LayoutFrame(s *ship.Ship, chain *tasks.Chain, h *hold.Hold, roster *crew.Roster) protocol.LayoutMsg {
	v := s.Snapshot()
	msg := protocol.LayoutMsg{
		Type:            protocol.TypeLayout,
		ProtocolVersion: protocol.Version,
		CatalogDigest:   s.Catalog().Digest,
		Layout: protocol.LayoutObs{
			MiddleLength:      v.MiddleLength,
			ModulesPerSection: v.ModulesPerSection,
			Digest:            v.Digest,
			AuditSeq:          v.AuditSeq,
			Sections:          make([]protocol.SectionObs, 0, len(v.Sections)),
		},
		Tasks: []protocol.TaskObs{},
	}
	for _, sv := range v.Sections {
		msg.Layout.Sections = append(msg.Layout.Sections, protocol.SectionObs{
			Index:   sv.Index,
			Type:    sv.Type,
			Modules: sv.Modules,
		})
	}
	if chain != nil {
		for _, t := range chain.Tasks() {
			o := protocol.TaskObs{
				ID:          t.ID,
				Kind:        string(t.Kind),
				Scope:       string(t.Scope),
				Anchor:      [2]int{t.Anchor.Section, t.Anchor.Slot},
				Labour:      t.Labour,
				Description: t.Description,
			}
			switch {
			case t.SectionType != "":
				o.Target = string(t.SectionType)
			case t.ModuleType != "":
				o.Target = string(t.ModuleType)
			}
			msg.Tasks = append(msg.Tasks, o)
		}
	}
	if h != nil {
		for _, st := range h.Inventory() {
			msg.Hold = append(msg.Hold, protocol.ItemStack{Item: st.Item, Count: st.Units})
		}
	}
	if roster != nil {
		for _, q := range roster.Quarters() {
			msg.Housing = append(msg.Housing, protocol.HousingObs{
				Key:       q.Key,
				Loc:       [2]int{q.Loc.Section, q.Loc.Slot},
				Capacity:  q.Capacity,
				Occupants: q.Occupants,
			})
		}
	}
	return msg
}

func auditFrame(e ship.AuditEntry) protocol.AuditMsg {
	return protocol.AuditMsg{
		Type:            protocol.TypeAudit,
		ProtocolVersion: protocol.Version,
		Entry: protocol.AuditObs{
			Seq:    e.Seq,
			Action: e.Action,
			Loc:    [2]int{e.Loc.Section, e.Loc.Slot},
			From:   e.From,
			To:     e.To,
			Units:  e.Units,
			Jobs:   e.Jobs,
			Reason: e.Reason,
		},
	}
}
