package relay

import "github.com/google/uuid"

type UUIDGenerator struct{}

func (UUIDGenerator) GenerateClientID() string {
	return uuid.NewString()
}
