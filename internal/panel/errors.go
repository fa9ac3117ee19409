package panel

import "fmt"

// UnknownPanelError reports an id with no live panel behind it: out of range,
// or a slot emptied by child removal.
type UnknownPanelError struct {
	ID int
}

func (e *UnknownPanelError) Error() string {
	return fmt.Sprintf("panel: no panel with id %d", e.ID)
}

// NoSuchPanelError reports a child name lookup miss.
type NoSuchPanelError struct {
	Name string
}

func (e *NoSuchPanelError) Error() string {
	return fmt.Sprintf("panel: no child named %q", e.Name)
}

// MissingParentError reports a detached non-root panel asked for its root.
type MissingParentError struct {
	ID int
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("panel: panel %d has no parent and is not the root", e.ID)
}

// AlreadyAttachedError reports an attempt to add a panel that already has a
// parent. Re-parenting is not supported: a panel enters the tree once.
type AlreadyAttachedError struct {
	ID int
}

func (e *AlreadyAttachedError) Error() string {
	return fmt.Sprintf("panel: panel %d is already attached", e.ID)
}

// DuplicateChildError reports a second child added under a name the
// container already uses.
type DuplicateChildError struct {
	Name string
}

func (e *DuplicateChildError) Error() string {
	return fmt.Sprintf("panel: container already has a child named %q", e.Name)
}
