package editor

type repairer interface {
	Repair() (bool, error)
}

// Repair rewrites every order the merge left with duplicate, dangling or missing ids into its
// canonical form and drops drafts whose section is gone. It reports whether anything was written.
func (b *Batch) Repair() (bool, error) {
	sections, err := b.tx.Sections()
	if err != nil {
		return false, err
	}
	scenes, err := b.tx.Scenes()
	if err != nil {
		return false, err
	}
	media, err := b.tx.Media()
	if err != nil {
		return false, err
	}
	changed := false
	for _, r := range []repairer{sections, scenes, media} {
		ok, err := r.Repair()
		if err != nil {
			return false, err
		}
		changed = changed || ok
	}

	sectionIDs, err := sections.Keys()
	if err != nil {
		return false, err
	}
	for _, id := range sectionIDs {
		ok, err := b.repairIntervals(InSection(id))
		if err != nil {
			return false, err
		}
		changed = changed || ok
	}

	drafts, err := b.tx.SectionDrafts()
	if err != nil {
		return false, err
	}
	draftIDs, err := drafts.Keys()
	if err != nil {
		return false, err
	}
	for _, id := range draftIDs {
		if ok, err := sections.Has(id); err != nil {
			return false, err
		} else if !ok {
			if err := drafts.Delete(id); err != nil {
				return false, err
			}
			changed = true
			continue
		}
		ok, err := b.repairIntervals(InDraft(id))
		if err != nil {
			return false, err
		}
		changed = changed || ok
	}
	return changed, nil
}

func (b *Batch) repairIntervals(scope Scope) (bool, error) {
	intervals, err := b.intervals(scope)
	if err != nil {
		return false, err
	}
	return intervals.Repair()
}
