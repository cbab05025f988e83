package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/product-catalog/internal/domain/product"
)

// readProducts decodes a JSON array of products from path. Files ending in
// .gz are decompressed.
func readProducts(path string) ([]product.DTO, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	dtos, err := product.DecodeList(jx.Decode(r, 64*1024))
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return dtos, nil
}

type seedResult struct {
	Created int
	Skipped int
}

// seed creates every product through svc with at most workers concurrent
// inserts. Products whose ID already exists are skipped.
func seed(ctx context.Context, lg *zap.Logger, svc *product.Service, dtos []product.DTO, workers int) (seedResult, error) {
	if workers < 1 {
		workers = 1
	}
	ctx = zctx.Base(ctx, lg)

	var created, skipped atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, dto := range dtos {
		g.Go(func() error {
			_, err := svc.Create(gCtx, dto)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, product.ErrAlreadyExists):
				skipped.Add(1)
				lg.Warn("Skipping existing product", zap.String("product_id", dto.ID))
			default:
				return errors.Wrapf(err, "create product %q", dto.ID)
			}
			return nil
		})
	}
	err := g.Wait()
	return seedResult{Created: int(created.Load()), Skipped: int(skipped.Load())}, err
}
