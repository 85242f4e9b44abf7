package storage

import (
	"io/fs"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

var _ FileSystem = (*MockStorage)(nil)

func (m *MockStorage) Resolve(clientPath string) (string, error) {
	args := m.Called(clientPath)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Stat(clientPath string) (fs.FileInfo, error) {
	args := m.Called(clientPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(fs.FileInfo), args.Error(1)
}

func (m *MockStorage) Lstat(clientPath string) (fs.FileInfo, error) {
	args := m.Called(clientPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(fs.FileInfo), args.Error(1)
}

func (m *MockStorage) ReadDir(clientPath string) ([]fs.DirEntry, error) {
	args := m.Called(clientPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fs.DirEntry), args.Error(1)
}

func (m *MockStorage) MkdirAll(clientPath string, perm fs.FileMode) error {
	args := m.Called(clientPath, perm)
	return args.Error(0)
}

func (m *MockStorage) Move(source string, destination string) error {
	args := m.Called(source, destination)
	return args.Error(0)
}

func (m *MockStorage) RemoveIfEmpty(clientPath string) (bool, error) {
	args := m.Called(clientPath)
	return args.Bool(0), args.Error(1)
}
