package h5out

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAttributeOnRoot(t *testing.T) {
	f := writeThenOpen(t, func(o *OutputFile) {
		WriteAttribute(o, "/", "time", 1.5)
		WriteAttribute(o, "/", "step", int64(42))
	})

	timeAttr := f.Root().Attr("time")
	require.NotNil(t, timeAttr)
	timeVal, err := timeAttr.ReadScalarFloat64()
	require.NoError(t, err)
	require.Equal(t, 1.5, timeVal)

	stepAttr := f.Root().Attr("step")
	require.NotNil(t, stepAttr)
	stepVal, err := stepAttr.ReadScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(42), stepVal)
}

func TestWriteAttributeOnGroup(t *testing.T) {
	f := writeThenOpen(t, func(o *OutputFile) {
		o.CreateGroup("/header")
		WriteAttribute(o, "/header", "boxsize", 50.0)
		WriteAttribute(o, "/header", "npart", uint64(1024))
	})

	grp, err := f.Root().OpenGroup("header")
	require.NoError(t, err)

	box := grp.Attr("boxsize")
	require.NotNil(t, box)
	boxVal, err := box.ReadScalarFloat64()
	require.NoError(t, err)
	require.Equal(t, 50.0, boxVal)

	npart := grp.Attr("npart")
	require.NotNil(t, npart)
}

func TestWriteAttributeOnDataset(t *testing.T) {
	f := writeThenOpen(t, func(o *OutputFile) {
		WriteDataset(o, "/masses", []float64{1, 2, 3})
		WriteAttribute(o, "/masses", "to_solar", 1e10)
	})

	ds, err := f.OpenDataset("/masses")
	require.NoError(t, err)

	attr := ds.Attr("to_solar")
	require.NotNil(t, attr)
	val, err := attr.ReadScalarFloat64()
	require.NoError(t, err)
	require.Equal(t, 1e10, val)

	// The dataset itself must survive the header rewrite.
	var got []float64
	require.NoError(t, ds.Read(&got))
	require.Equal(t, []float64{1, 2, 3}, got)
}

func TestWriteStringAttribute(t *testing.T) {
	f := writeThenOpen(t, func(o *OutputFile) {
		o.WriteStringAttribute("/", "code", "gizmo")
	})

	attr := f.Root().Attr("code")
	require.NotNil(t, attr)
	val, err := attr.ReadScalarString()
	require.NoError(t, err)
	require.Equal(t, "gizmo", val)
}

func TestWriteAttributeAllKinds(t *testing.T) {
	f := writeThenOpen(t, func(o *OutputFile) {
		WriteAttribute(o, "/", "f32", float32(1.5))
		WriteAttribute(o, "/", "f64", 2.5)
		WriteAttribute(o, "/", "i32", int32(-3))
		WriteAttribute(o, "/", "i64", int64(-4))
		WriteAttribute(o, "/", "i", -5)
		WriteAttribute(o, "/", "u32", uint32(6))
		WriteAttribute(o, "/", "u64", uint64(7))
		WriteAttribute(o, "/", "u", uint(8))
	})

	root := f.Root()
	for _, name := range []string{"f32", "f64", "i32", "i64", "i", "u32", "u64", "u"} {
		require.NotNil(t, root.Attr(name), "attribute %s missing", name)
	}

	i64, err := root.Attr("i64").ReadScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(-4), i64)

	// int stores as 64-bit signed
	i, err := root.Attr("i").ReadScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(-5), i)
}

func TestWriteAttributeMissingParentIsFatal(t *testing.T) {
	o, rec := newTestOutput(t)
	o.Create(filepath.Join(t.TempDir(), "out.h5"))

	expectFatal(t, rec, func() {
		WriteAttribute(o, "/missing", "x", 1.0)
	})
}

func TestWriteAttributeNoFileIsFatal(t *testing.T) {
	o, rec := newTestOutput(t)

	expectFatal(t, rec, func() {
		WriteAttribute(o, "/", "x", 1.0)
	})
}

func TestWriteAttributeOverwrites(t *testing.T) {
	f := writeThenOpen(t, func(o *OutputFile) {
		WriteAttribute(o, "/", "time", 1.0)
		WriteAttribute(o, "/", "time", 2.0)
	})

	attr := f.Root().Attr("time")
	require.NotNil(t, attr)
	val, err := attr.ReadScalarFloat64()
	require.NoError(t, err)
	require.Equal(t, 2.0, val)

	names := f.Root().Attrs()
	count := 0
	for _, n := range names {
		if n == "time" {
			count++
		}
	}
	require.Equal(t, 1, count)
}
