package lend

// noCopy can be embedded to get a "go vet" warning
// when a World or Context is copied by value
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
