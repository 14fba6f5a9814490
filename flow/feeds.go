package flow

// feedHaver is implemented by baseFlowable; checked via type assertion so
// WalkDataFeeds works across every flowable variant without a shared
// concrete base type in the Flowable interface itself.
type feedHaver interface {
	DataFeeds() map[string]float64
}

// childrenHaver is implemented by every composite flowable so the
// pagination aggregator (§4.5 "Paginated context") can walk an arbitrary
// placed subtree without knowing its concrete type.
type childrenHaver interface {
	FlowChildren() []Flowable
}

// WalkDataFeeds visits every data-feed map attached to f or one of its
// descendants, in tree order.
func WalkDataFeeds(f Flowable, visit func(map[string]float64)) {
	if f == nil {
		return
	}
	if fh, ok := f.(feedHaver); ok {
		if m := fh.DataFeeds(); len(m) > 0 {
			visit(m)
		}
	}
	if ch, ok := f.(childrenHaver); ok {
		for _, c := range ch.FlowChildren() {
			WalkDataFeeds(c, visit)
		}
	}
}

func (c *Container) FlowChildren() []Flowable { return c.Children }
func (f *Flex) FlowChildren() []Flowable      { return f.Children }
func (g *Grid) FlowChildren() []Flowable      { return g.Children }

func (t *Table) FlowChildren() []Flowable {
	var out []Flowable
	for _, row := range t.Rows {
		out = append(out, row.Cells...)
	}
	return out
}

func (p *PositionedRelative) FlowChildren() []Flowable { return []Flowable{p.Child} }
func (p *PositionedAbsolute) FlowChildren() []Flowable { return []Flowable{p.Child} }
func (t *Transformed) FlowChildren() []Flowable        { return []Flowable{t.Child} }
