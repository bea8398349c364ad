package storage

// Version will attempt to get the current version stored in the
// underlying Store.
func Version(s Store) (string, error) {
	version, err := s.Get(SYSVersion.Bytes())
	return string(version), err
}

// PutVersion will store the given version in the underlying Store.
func PutVersion(s Store, v string) error {
	return s.PutChangeSet(map[string][]byte{
		string(SYSVersion.Bytes()): []byte(v),
	})
}
