package mapper

// Compiled exposes the cached plan behind p.
func (p *Plan) Compiled() any {
	return p.compiled
}
