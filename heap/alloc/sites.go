package alloc

// siteTable interns call-site file names so headers can refer to them by a
// 32-bit id. Id 0 is reserved for unknown sites, which keeps zeroed headers
// printable.
type siteTable struct {
	names []string
	ids   map[string]uint32
}

const unknownSite = "?"

func newSiteTable() *siteTable {
	return &siteTable{
		names: []string{unknownSite},
		ids:   map[string]uint32{unknownSite: 0},
	}
}

func (s *siteTable) intern(file string) uint32 {
	if id, ok := s.ids[file]; ok {
		return id
	}
	id := uint32(len(s.names))
	s.names = append(s.names, file)
	s.ids[file] = id
	return id
}

// name returns the file for id, or "?" for ids a scribbled header made up.
func (s *siteTable) name(id uint32) string {
	if int(id) >= len(s.names) {
		return unknownSite
	}
	return s.names[id]
}
