package crew

import (
	"sort"

	"homeship.ai/internal/sim/shiploc"
)

type Quarters struct {
	Key       int
	Capacity  int
	Occupants int
	Loc       shiploc.Loc
}

func (q Quarters) Free() int {
	if q.Occupants >= q.Capacity {
		return 0
	}
	return q.Capacity - q.Occupants
}

// Roster tracks crew housing and open jobs for one ship.
type Roster struct {
	nextKey  int
	quarters map[int]*Quarters
	jobs     map[int]bool
	homeless int
}

func NewRoster() *Roster {
	return &Roster{quarters: map[int]*Quarters{}, jobs: map[int]bool{}}
}

func (r *Roster) YieldHousingKey() int {
	r.nextKey++
	return r.nextKey
}

func (r *Roster) AddHousing(key, capacity int, at shiploc.Loc) {
	if capacity < 0 {
		capacity = 0
	}
	r.quarters[key] = &Quarters{Key: key, Capacity: capacity, Loc: at}
	r.settle()
}

// RemoveHousing evicts the occupants of key and moves them into free quarters elsewhere.
// Whoever does not fit stays homeless until housing appears.
func (r *Roster) RemoveHousing(key int) {
	q, ok := r.quarters[key]
	if !ok {
		return
	}
	delete(r.quarters, key)
	r.homeless += q.Occupants
	r.settle()
}

func (r *Roster) Occupants(key int) int {
	if q, ok := r.quarters[key]; ok {
		return q.Occupants
	}
	return 0
}

func (r *Roster) CanRehouse(crew int, excluding shiploc.Set) bool {
	if crew <= 0 {
		return true
	}
	free := 0
	for _, q := range r.quarters {
		if excluding.Has(q.Loc) {
			continue
		}
		free += q.Free()
	}
	return free >= crew
}

// Board adds n crew members and houses them where there is room. It returns how many
// found quarters.
func (r *Roster) Board(n int) int {
	if n <= 0 {
		return 0
	}
	before := r.homeless
	r.homeless += n
	r.settle()
	housed := before + n - r.homeless
	if housed > n {
		housed = n
	}
	return housed
}

func (r *Roster) Homeless() int { return r.homeless }

// Crew counts every crew member, housed or not.
func (r *Roster) Crew() int {
	n := r.homeless
	for _, q := range r.quarters {
		n += q.Occupants
	}
	return n
}

// Quarters lists housing in key order.
func (r *Roster) Quarters() []Quarters {
	out := make([]Quarters, 0, len(r.quarters))
	for _, k := range r.sortedKeys() {
		out = append(out, *r.quarters[k])
	}
	return out
}

func (r *Roster) settle() {
	for _, k := range r.sortedKeys() {
		if r.homeless == 0 {
			return
		}
		q := r.quarters[k]
		n := q.Free()
		if n > r.homeless {
			n = r.homeless
		}
		q.Occupants += n
		r.homeless -= n
	}
}

func (r *Roster) sortedKeys() []int {
	keys := make([]int, 0, len(r.quarters))
	for k := range r.quarters {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (r *Roster) AddJobs(keys ...int) {
	for _, k := range keys {
		r.jobs[k] = true
	}
}

func (r *Roster) RemoveJobs(keys []int) {
	for _, k := range keys {
		delete(r.jobs, k)
	}
}

func (r *Roster) HasJob(key int) bool { return r.jobs[key] }

func (r *Roster) Jobs() []int {
	out := make([]int, 0, len(r.jobs))
	for k := range r.jobs {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
