package device

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// OwnerLock is an exclusive advisory lock on a file, held by the process driving the matrix
type OwnerLock struct {
	filename string
	file     *os.File
}

func NewOwnerLock(filename string) *OwnerLock {
	return &OwnerLock{filename: filename}
}

// Lock fails immediately when another process holds the lock
func (l *OwnerLock) Lock() error {
	if l.file != nil {
		return nil
	}
	file, err := os.OpenFile(l.filename, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return err
	}
	if err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return fmt.Errorf("%s is locked by another process", l.filename)
		}
		return fmt.Errorf("unable to lock %s: %w", l.filename, err)
	}
	// The pid is informative only, the flock is what holds ownership
	if err = file.Truncate(0); err == nil {
		_, err = file.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	}
	if err != nil {
		logrus.Debugf("Unable to write pid into %s: %v", l.filename, err)
	}
	l.file = file
	return nil
}

func (l *OwnerLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	if unlockErr != nil {
		return fmt.Errorf("unable to unlock %s: %w", l.filename, unlockErr)
	}
	return nil
}
