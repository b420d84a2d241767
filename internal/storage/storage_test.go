package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadyUnconfigured(t *testing.T) {
	var nilStore *S3Store
	assert.ErrorIs(t, nilStore.Ready(), ErrNotConfigured)

	empty := &S3Store{}
	assert.ErrorIs(t, empty.Ready(), ErrNotConfigured)

	_, err := empty.Upload(context.Background(), []byte("pdf"), "x.pdf")
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, empty.Delete(context.Background(), "certificates/x.pdf"), ErrNotConfigured)
}

func TestObjectURL(t *testing.T) {
	s := &S3Store{bucket: "ecell-certs", region: "ap-south-1"}
	url := s.objectURL("certificates/ECELL-2026-AB1CD.pdf")
	assert.Equal(t, "https://ecell-certs.s3.ap-south-1.amazonaws.com/certificates/ECELL-2026-AB1CD.pdf", url)
}
