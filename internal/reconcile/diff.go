package reconcile

import (
	"math"
	"sort"
	"strings"

	"course-admin/internal/domain"
)

// Plan is the set of calls needed to bring the live catalog in line with a
// desired one.
type Plan struct {
	Create []domain.Draft
	// Update holds the merged course, ready for PUT.
	Update []domain.Course
	// Delete is only populated when pruning.
	Delete []domain.Course
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Diff compares desired drafts (usually read from a catalog CSV) with the
// current catalog.
//   - drafts with an ID that exists are updates when any field differs
//   - drafts with an unknown ID, or without ID and no title match, are creates
//   - drafts without ID are matched to an unclaimed course by normalized title
//   - with prune, every current course not matched is deleted
//
// Output order follows the input order so runs are reproducible.
func Diff(desired []domain.Draft, current []domain.Course, prune bool) Plan {
	curByID := make(map[int]domain.Course, len(current))
	curByTitle := map[string][]int{}
	for _, c := range current {
		curByID[c.ID] = c
		t := norm(c.Title)
		curByTitle[t] = append(curByTitle[t], c.ID)
	}

	claimed := map[int]bool{}
	var plan Plan

	// explicit ids first so a title match never steals a course that a later
	// row addresses by id
	var unkeyed []domain.Draft
	for _, d := range desired {
		if d.ID == nil {
			unkeyed = append(unkeyed, d)
			continue
		}
		c, ok := curByID[*d.ID]
		if !ok || claimed[c.ID] {
			plan.Create = append(plan.Create, d)
			continue
		}
		claimed[c.ID] = true
		if needsUpdate(d, c) {
			plan.Update = append(plan.Update, merge(c, d))
		}
	}

	for _, d := range unkeyed {
		id, ok := takeByTitle(curByTitle[norm(d.Title)], claimed)
		if !ok {
			plan.Create = append(plan.Create, d)
			continue
		}
		claimed[id] = true
		c := curByID[id]
		if needsUpdate(d, c) {
			plan.Update = append(plan.Update, merge(c, d))
		}
	}

	if prune {
		for _, c := range current {
			if !claimed[c.ID] {
				plan.Delete = append(plan.Delete, c)
				claimed[c.ID] = true
			}
		}
	}

	sort.SliceStable(plan.Update, func(i, j int) bool { return plan.Update[i].ID < plan.Update[j].ID })
	return plan
}

func merge(c domain.Course, d domain.Draft) domain.Course {
	if d.Image.IsZero() {
		d.Image = c.Image
	}
	return c.Apply(d)
}

func takeByTitle(ids []int, claimed map[int]bool) (int, bool) {
	for _, id := range ids {
		if !claimed[id] {
			return id, true
		}
	}
	return 0, false
}

func needsUpdate(d domain.Draft, c domain.Course) bool {
	if strings.TrimSpace(d.Title) != strings.TrimSpace(c.Title) {
		return true
	}
	if strings.TrimSpace(d.Description) != strings.TrimSpace(c.Description) {
		return true
	}
	// CSV carries two decimals
	if math.Abs(d.Price-c.Price) > 0.005 {
		return true
	}
	// an empty image column keeps the current image
	if !d.Image.IsZero() && strings.TrimSpace(d.Image.URL()) != strings.TrimSpace(c.Image.URL()) {
		return true
	}
	return false
}

func norm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
