package admin

func (p *Preview) isReleased() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func (p *Preview) filePath() string {
	return p.path
}
