package common

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/edsrzf/mmap-go"
)

type FileStream struct {
	file           *os.File
	filePosition   int64
	fileSize       int64
	isMemoryMapped bool
	isOpen         bool
	mmapFile       mmap.MMap
}

func (f *FileStream) offsetFilePosition(offset int) {
	f.filePosition += int64(offset)
}

// Bytes returns the whole mapped file without copying, or reads it into memory when the
// file could not be memory mapped. The returned slice is only valid until Close.
func (f *FileStream) Bytes() ([]byte, error) {
	if !f.isOpen {
		return nil, errors.New("file stream is closed")
	}

	if f.isMemoryMapped {
		return f.mmapFile, nil
	}

	buffer := make([]byte, f.fileSize)
	bytesRead, readErr := f.file.ReadAt(buffer, 0)
	if readErr != nil && readErr != io.EOF {
		return nil, errors.Wrap(readErr, "failed to read file contents")
	}

	return buffer[:bytesRead], nil
}

func (f *FileStream) Close() error {
	if !f.isOpen {
		return nil
	}

	f.filePosition = -1
	f.fileSize = -1
	f.isOpen = false

	if f.isMemoryMapped {
		return f.mmapFile.Unmap()
	}

	return f.file.Close()
}

func NewFileStream(path string) (*FileStream, error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "failed to open file %s", path)
	}

	stat, statErr := file.Stat()
	if statErr != nil {
		file.Close()

		return nil, errors.Wrapf(statErr, "failed to read information while opening file %s", path)
	}

	if stat.Size() == 0 {
		return &FileStream{file: file, isOpen: true}, nil
	}

	mmap, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		return &FileStream{
			file:           file,
			filePosition:   0,
			fileSize:       stat.Size(),
			isMemoryMapped: false,
			isOpen:         true,
			mmapFile:       nil,
		}, nil
	}

	defer file.Close()

	adviseSequential(mmap)

	return &FileStream{
		file:           file,
		filePosition:   0,
		fileSize:       stat.Size(),
		isMemoryMapped: true,
		isOpen:         true,
		mmapFile:       mmap,
	}, nil
}

func (f *FileStream) Position() int64 {
	return f.filePosition
}

func (f *FileStream) Read(b []byte) (int, error) {
	if f.isMemoryMapped {
		if f.filePosition >= f.fileSize {
			return 0, io.EOF
		}

		requestedByteCount := int64(len(b))
		endIndex := f.filePosition + requestedByteCount
		var err error

		if endIndex >= f.fileSize {
			endIndex = f.fileSize
			err = io.EOF
		}

		bytesCopied := copy(b, f.mmapFile[f.filePosition:endIndex])

		f.offsetFilePosition(bytesCopied)

		return bytesCopied, err
	}

	bytesRead, readErr := f.file.Read(b)
	if bytesRead == 0 || (readErr != nil && readErr != io.EOF) {
		return bytesRead, readErr
	}

	f.offsetFilePosition(bytesRead)

	return bytesRead, nil
}

func (f *FileStream) Seek(offset int64, whence int) (int64, error) {
	if f.isMemoryMapped {
		switch whence {
		case io.SeekCurrent:
			f.filePosition += offset
		case io.SeekEnd:
			f.filePosition = f.fileSize + offset
		case io.SeekStart:
			f.filePosition = offset
		}

		if f.filePosition < 0 {
			f.filePosition = 0

			return 0, errors.New("seek to negative position")
		}

		return f.filePosition, nil
	}

	newOffset, seekErr := f.file.Seek(offset, whence)
	if seekErr != nil {
		return newOffset, seekErr
	}

	f.filePosition = newOffset

	return f.filePosition, nil
}

func (f *FileStream) Size() int64 {
	return f.fileSize
}

// ReadFile loads a whole file through a FileStream.
func ReadFile(path string) ([]byte, error) {
	stream, streamErr := NewFileStream(path)
	if streamErr != nil {
		return nil, streamErr
	}

	defer stream.Close()

	data, dataErr := stream.Bytes()
	if dataErr != nil {
		return nil, errors.Wrapf(dataErr, "failed to read %s", path)
	}

	//copy out of the mapping before it is released
	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}
