package file

import (
	"os"
	"syscall"
)

// FLock is the file lock held for the lifetime of an open block file.
type FLock interface {
	Lock(file *os.File) error
	Unlock(file *os.File) error
}

// FLocker implements FLock on top of the system flock.
type FLocker struct{}

func NewFLocker() *FLocker {
	return &FLocker{}
}

// Lock takes the exclusive lock, blocking until the holder releases it.
func (f *FLocker) Lock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_EX)
}

// Unlock releases the lock.
func (f *FLocker) Unlock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
}
