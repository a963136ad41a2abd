// Package benchmarks measures slabmem.Allocator against the read-path
// buffer allocation patterns of three embedded stores: populate each
// with small values, then repeatedly Get and copy the result into a
// buffer drawn from the allocator under test instead of plain make().
package benchmarks

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/kelindar/slabmem"
	"github.com/tecbot/gorocksdb"
	bolt "go.etcd.io/bbolt"
)

const (
	benchNumKeys = 1000
	benchValSize = 256
)

func keyFor(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

func valFor(i int) []byte {
	v := make([]byte, benchValSize)
	binary.BigEndian.PutUint64(v, uint64(i))
	return v
}

func setupBoltDB(b *testing.B, dir string) *bolt.DB {
	db, err := bolt.Open(filepath.Join(dir, "bolt.db"), 0644, &bolt.Options{NoSync: true})
	if err != nil {
		b.Fatal(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte("bench"))
		if err != nil {
			return err
		}
		for i := 0; i < benchNumKeys; i++ {
			if err := bucket.Put(keyFor(i), valFor(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
	return db
}

func setupMdbxEnv(b *testing.B, dir string) (*mdbxgo.Env, mdbxgo.DBI) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	env, err := mdbxgo.NewEnv(mdbxgo.Label("bench"))
	if err != nil {
		b.Fatal(err)
	}
	if err := env.SetGeometry(-1, -1, 1<<26, -1, -1, 4096); err != nil {
		b.Fatal(err)
	}
	if err := env.Open(dir, mdbxgo.NoSubdir, 0644); err != nil {
		b.Fatal(err)
	}

	var dbi mdbxgo.DBI
	err = env.Update(func(txn *mdbxgo.Txn) error {
		var err error
		dbi, err = txn.OpenDBISimple("bench", mdbxgo.Create)
		if err != nil {
			return err
		}
		for i := 0; i < benchNumKeys; i++ {
			if err := txn.Put(dbi, keyFor(i), valFor(i), mdbxgo.Upsert); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
	return env, dbi
}

func setupRocksDB(b *testing.B, dir string) *gorocksdb.DB {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := gorocksdb.OpenDb(opts, filepath.Join(dir, "rocks.db"))
	if err != nil {
		b.Fatal(err)
	}
	wo := gorocksdb.NewDefaultWriteOptions()
	defer wo.Destroy()
	for i := 0; i < benchNumKeys; i++ {
		if err := db.Put(wo, keyFor(i), valFor(i)); err != nil {
			b.Fatal(err)
		}
	}
	return db
}

// BenchmarkBoltGetCopy_SlabAllocator copies each Get result into a
// buffer drawn from a slabmem.Allocator.
func BenchmarkBoltGetCopy_SlabAllocator(b *testing.B) {
	dir := b.TempDir()
	db := setupBoltDB(b, dir)
	defer db.Close()

	a := slabmem.New()
	defer a.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = db.View(func(tx *bolt.Tx) error {
			v := tx.Bucket([]byte("bench")).Get(keyFor(i % benchNumKeys))
			buf, err := a.Allocate(len(v))
			if err != nil {
				return err
			}
			copy(buf, v)
			return a.Free(buf)
		})
	}
}

// BenchmarkBoltGetCopy_Heap copies each Get result into a plain
// make([]byte, n) buffer, for comparison against the allocator above.
func BenchmarkBoltGetCopy_Heap(b *testing.B) {
	dir := b.TempDir()
	db := setupBoltDB(b, dir)
	defer db.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = db.View(func(tx *bolt.Tx) error {
			v := tx.Bucket([]byte("bench")).Get(keyFor(i % benchNumKeys))
			buf := make([]byte, len(v))
			copy(buf, v)
			return nil
		})
	}
}

// BenchmarkMdbxGetCopy_SlabAllocator mirrors the bolt benchmark above
// against the CGO mdbx-go bindings.
func BenchmarkMdbxGetCopy_SlabAllocator(b *testing.B) {
	dir := b.TempDir()
	env, dbi := setupMdbxEnv(b, dir)
	defer env.Close()

	a := slabmem.New()
	defer a.Close()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	txn, err := env.BeginTxn(nil, mdbxgo.Readonly)
	if err != nil {
		b.Fatal(err)
	}
	defer txn.Abort()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v, err := txn.Get(dbi, keyFor(i%benchNumKeys))
		if err != nil {
			b.Fatal(err)
		}
		buf, err := a.Allocate(len(v))
		if err != nil {
			b.Fatal(err)
		}
		copy(buf, v)
		if err := a.Free(buf); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRocksGetCopy_SlabAllocator mirrors the bolt benchmark above
// against gorocksdb.
func BenchmarkRocksGetCopy_SlabAllocator(b *testing.B) {
	dir := b.TempDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.Fatal(err)
	}
	db := setupRocksDB(b, dir)
	defer db.Close()

	ro := gorocksdb.NewDefaultReadOptions()
	defer ro.Destroy()

	a := slabmem.New()
	defer a.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		slice, err := db.Get(ro, keyFor(i%benchNumKeys))
		if err != nil {
			b.Fatal(err)
		}
		buf, err := a.Allocate(slice.Size())
		if err != nil {
			b.Fatal(err)
		}
		copy(buf, slice.Data())
		slice.Free()
		if err := a.Free(buf); err != nil {
			b.Fatal(err)
		}
	}
}
