package geom

// Keyhole merges the polygon's holes into its outer boundary through
// zero-width cuts, yielding a single CCW ring enclosing the same
// area. Formats whose polygons cannot carry holes use this form.
func (p Polygon) Keyhole() (Ring, error) {
	if len(p.Outer) < 3 {
		return nil, nil
	}
	if len(p.Holes) == 0 {
		if p.Outer.IsCCW() {
			return p.Outer.Clone(), nil
		}
		return p.Outer.Reversed(), nil
	}

	head := buildRing(p.Outer, 0, true)
	if head == nil {
		return nil, nil
	}

	offset := len(p.Outer)
	var holeHeads []*earNode
	for _, h := range p.Holes {
		if hn := buildRing(h, offset, false); hn != nil {
			holeHeads = append(holeHeads, hn)
		}
		offset += len(h)
	}

	sortHolesRightToLeft(holeHeads)
	for _, hn := range holeHeads {
		var err error
		head, err = bridgeHole(head, hn)
		if err != nil {
			return nil, err
		}
	}

	ring := Ring{head.p}
	for n := head.next; n != head; n = n.next {
		ring = append(ring, n.p)
	}
	return ring, nil
}
