package entity

import (
	"errors"
	"fmt"
	"time"
)

var ErrMissingAddress = errors.New("missing address")

type ChangeType string

const (
	ChangeAdded    ChangeType = "Added"
	ChangeModified ChangeType = "Modified"
	ChangeDeleted  ChangeType = "Deleted"
	ChangeUnknown  ChangeType = "Unknown"
)

type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

type Identity struct {
	Name      string
	Namespace string
}

func (i Identity) String() string {
	if i.Namespace == "" {
		return i.Name
	}

	return fmt.Sprintf("%s/%s", i.Namespace, i.Name)
}

// ResourceEvent is a single change observed on a watched kind.
// Spec and Status are the raw resource sections; mappers validate them into typed specs.
type ResourceEvent struct {
	Kind            string
	ChangeType      ChangeType
	Identity        Identity
	ResourceVersion string
	Spec            map[string]interface{}
	Status          map[string]interface{}
	Labels          map[string]string
}

// Key identifies the resource across kinds, used for logs and dead letters.
func (e ResourceEvent) Key() string {
	return fmt.Sprintf("%s/%s", e.Kind, e.Identity)
}

type RegistryRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Port    int      `json:"port"`
	Tags    []string `json:"tags"`
}

// PrimarySpec is the part of a primary kind spec the mapper reads.
type PrimarySpec struct {
	Address string `json:"address,omitempty"`
}

// SecondarySpec is the part of a secondary kind spec the mapper reads.
type SecondarySpec struct {
	ID      string   `json:"id,omitempty"`
	Address string   `json:"address,omitempty"`
	Port    *int64   `json:"port,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Condition mirrors the fields of a metav1.Condition that readiness looks at.
type Condition struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type Operation string

const (
	OperationUpsert Operation = "upsert"
	OperationRemove Operation = "remove"
)

// Mutation is a registry write that went through.
type Mutation struct {
	Operation Operation       `json:"operation"`
	ID        string          `json:"id"`
	Record    *RegistryRecord `json:"record,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
