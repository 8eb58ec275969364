package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("blob object not found")

// ErrInvalidKey 非法的对象 Key
var ErrInvalidKey = errors.New("invalid blob key")

// DiskStore 本地磁盘对象存储
// 写入走临时文件 + rename，失败不会留下半截对象；
// 对象通过 HTTP 层的 /blobs/{key} 取回
type DiskStore struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

// NewDiskStore 创建磁盘存储
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  slog.Default(),
	}, nil
}

// Upload 异步上传
// 返回的任务立即处于 uploading 状态，拷贝在后台进行
func (s *DiskStore) Upload(ctx context.Context, name string, r io.Reader) (*Upload, error) {
	key := buildKey(name)
	up := NewUpload(name, key)

	go s.run(ctx, up, r)

	return up, nil
}

// run 执行实际拷贝，并把任务推进到终态
func (s *DiskStore) run(ctx context.Context, up *Upload, r io.Reader) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		s.logger.Error("Failed to create temp file for upload", "name", up.Name, "error", err)
		up.Fail(err)
		return
	}
	tmpName := tmp.Name()

	written, err := copyWithContext(ctx, tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		s.logger.Error("Upload failed", "name", up.Name, "key", up.Key, "error", err)
		up.Fail(err)
		return
	}

	finalPath := filepath.Join(s.dir, up.Key)
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		s.logger.Error("Failed to finalize upload", "name", up.Name, "key", up.Key, "error", err)
		up.Fail(err)
		return
	}

	url := s.baseURL + "/blobs/" + up.Key
	s.logger.Debug("Upload complete", "key", up.Key, "bytes", written, "url", url)
	up.Complete(url)
}

// Open 打开已存储的对象
func (s *DiskStore) Open(key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// buildKey 生成唯一对象 Key，保留原始文件名便于后缀推导
func buildKey(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, base)
	return fmt.Sprintf("%s_%s", uuid.NewString(), base)
}

// validKey 拒绝带路径穿越的 Key
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") {
		return false
	}
	return !strings.ContainsAny(key, "/\\")
}

// copyWithContext 拷贝数据，ctx 取消时中断
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var written int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
		}
		if err != nil {
			if err == io.EOF {
				return written, nil
			}
			return written, err
		}
	}
}
