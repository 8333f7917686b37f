package backup

// IDMap translates one entity type's source-document identifiers into the
// identifiers actually assigned at the destination, whether matched or newly
// created. Entries are write-once within a run: the first translation for a
// key wins and is never retroactively changed.
type IDMap struct {
	ids map[int64]int64
}

// NewIDMap creates an empty translation map.
func NewIDMap() *IDMap {
	return &IDMap{ids: make(map[int64]int64)}
}

// Put records a translation. Zero source ids are ignored; a key that already
// has a translation keeps it.
func (m *IDMap) Put(sourceID, destID int64) {
	if sourceID == 0 {
		return
	}
	if _, exists := m.ids[sourceID]; exists {
		return
	}
	m.ids[sourceID] = destID
}

// Lookup returns the destination id for a source id.
func (m *IDMap) Lookup(sourceID int64) (int64, bool) {
	id, ok := m.ids[sourceID]
	return id, ok
}

// Len reports how many translations have been recorded.
func (m *IDMap) Len() int {
	return len(m.ids)
}

// idRegistry carries every entity type's IDMap through the pipeline stages,
// plus the destination default portfolio that unresolvable portfolio
// references fall back to.
type idRegistry struct {
	defaultPortfolioID int64

	portfolios     *IDMap
	bankAccounts   *IDMap
	dematAccounts  *IDMap
	cryptoAccounts *IDMap
	categories     *IDMap
	assets         *IDMap
}

func newIDRegistry(defaultPortfolioID int64) *idRegistry {
	return &idRegistry{
		defaultPortfolioID: defaultPortfolioID,
		portfolios:         NewIDMap(),
		bankAccounts:       NewIDMap(),
		dematAccounts:      NewIDMap(),
		cryptoAccounts:     NewIDMap(),
		categories:         NewIDMap(),
		assets:             NewIDMap(),
	}
}

// resolvePortfolio translates a source portfolio reference. References that
// never resolved (legacy documents without portfolios, or ids the
// destination never saw) land in the default portfolio instead of becoming
// orphans.
func (r *idRegistry) resolvePortfolio(sourceID int64) int64 {
	if id, ok := r.portfolios.Lookup(sourceID); ok {
		return id
	}
	return r.defaultPortfolioID
}

// resolveOptional translates an optional foreign key, returning nil when the
// source reference is absent or never resolved.
func resolveOptional(m *IDMap, sourceID *int64) *int64 {
	if sourceID == nil {
		return nil
	}
	if id, ok := m.Lookup(*sourceID); ok {
		return &id
	}
	return nil
}
