// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/geofind/core"
)

// Records are encoded field by field in declaration order using MUS
// primitives: varints for integers, length-prefixed strings, fixed-width
// floats. Vectors are a varint length followed by raw float32 values.

type encoder struct {
	bs []byte
	n  int
}

func (e *encoder) str(v string) { e.n += ord.String.Marshal(v, e.bs[e.n:]) }
func (e *encoder) i64(v int64) { e.n += varint.Int64.Marshal(v, e.bs[e.n:]) }
func (e *encoder) u64(v uint64) { e.n += varint.Uint64.Marshal(v, e.bs[e.n:]) }
func (e *encoder) f64(v float64) { e.n += raw.Float64.Marshal(v, e.bs[e.n:]) }
func (e *encoder) vec(v []float32) {
	e.n += varint.Int.Marshal(len(v), e.bs[e.n:])
	for _, f := range v {
		e.n += raw.Float32.Marshal(f, e.bs[e.n:])
	}
}

func vecSize(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) str() (v string) {
	if d.err != nil {
		return
	}
	var n int
	v, n, d.err = ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	return
}

func (d *decoder) i64() (v int64) {
	if d.err != nil {
		return
	}
	var n int
	v, n, d.err = varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	return
}

func (d *decoder) u64() (v uint64) {
	if d.err != nil {
		return
	}
	var n int
	v, n, d.err = varint.Uint64.Unmarshal(d.bs[d.n:])
	d.n += n
	return
}

func (d *decoder) f64() (v float64) {
	if d.err != nil {
		return
	}
	var n int
	v, n, d.err = raw.Float64.Unmarshal(d.bs[d.n:])
	d.n += n
	return
}

func (d *decoder) vec() []float32 {
	if d.err != nil {
		return nil
	}
	length, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	if err != nil {
		d.err = err
		return nil
	}
	d.n += n
	if length < 0 || length*4 > len(d.bs)-d.n {
		d.err = fmt.Errorf("%w: vector of %d elements", ErrTruncatedData, length)
		return nil
	}
	if length == 0 {
		return nil
	}
	v := make([]float32, length)
	for i := range v {
		v[i], n, d.err = raw.Float32.Unmarshal(d.bs[d.n:])
		if d.err != nil {
			return nil
		}
		d.n += n
	}
	return v
}

func (d *decoder) done() error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := decoder{bs: data}
	id := core.ID(d.u64())
	return id, d.done()
}

// MarshalCity serializes a City to bytes.
func MarshalCity(c *core.City) []byte {
	size := varint.Int64.Size(c.GeonameID) +
		ord.String.Size(c.Name) +
		ord.String.Size(c.ASCIIName) +
		ord.String.Size(c.AlternateNames) +
		raw.Float64.Size(c.Latitude) +
		raw.Float64.Size(c.Longitude) +
		ord.String.Size(c.FeatureClass) +
		ord.String.Size(c.FeatureCode) +
		ord.String.Size(c.CountryCode) +
		ord.String.Size(c.AdminCode) +
		varint.Int64.Size(c.Population) +
		ord.String.Size(c.Timezone) +
		ord.String.Size(c.Cell)
	e := encoder{bs: make([]byte, size)}
	e.i64(c.GeonameID)
	e.str(c.Name)
	e.str(c.ASCIIName)
	e.str(c.AlternateNames)
	e.f64(c.Latitude)
	e.f64(c.Longitude)
	e.str(c.FeatureClass)
	e.str(c.FeatureCode)
	e.str(c.CountryCode)
	e.str(c.AdminCode)
	e.i64(c.Population)
	e.str(c.Timezone)
	e.str(c.Cell)
	return e.bs
}

// UnmarshalCity deserializes a City from bytes.
func UnmarshalCity(data []byte) (*core.City, error) {
	d := decoder{bs: data}
	c := &core.City{
		GeonameID:      d.i64(),
		Name:           d.str(),
		ASCIIName:      d.str(),
		AlternateNames: d.str(),
		Latitude:       d.f64(),
		Longitude:      d.f64(),
		FeatureClass:   d.str(),
		FeatureCode:    d.str(),
		CountryCode:    d.str(),
		AdminCode:      d.str(),
		Population:     d.i64(),
		Timezone:       d.str(),
		Cell:           d.str(),
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalCountry serializes a Country to bytes.
func MarshalCountry(c *core.Country) []byte {
	size := ord.String.Size(c.ISO) +
		ord.String.Size(c.ISO3) +
		ord.String.Size(c.Name) +
		ord.String.Size(c.Capital) +
		raw.Float64.Size(c.AreaSqKm) +
		ord.String.Size(c.Population) +
		ord.String.Size(c.Continent) +
		ord.String.Size(c.TLD) +
		ord.String.Size(c.CurrencyCode) +
		ord.String.Size(c.CurrencyName) +
		ord.String.Size(c.Phone) +
		ord.String.Size(c.Languages)
	e := encoder{bs: make([]byte, size)}
	e.str(c.ISO)
	e.str(c.ISO3)
	e.str(c.Name)
	e.str(c.Capital)
	e.f64(c.AreaSqKm)
	e.str(c.Population)
	e.str(c.Continent)
	e.str(c.TLD)
	e.str(c.CurrencyCode)
	e.str(c.CurrencyName)
	e.str(c.Phone)
	e.str(c.Languages)
	return e.bs
}

// UnmarshalCountry deserializes a Country from bytes.
func UnmarshalCountry(data []byte) (*core.Country, error) {
	d := decoder{bs: data}
	c := &core.Country{
		ISO:          d.str(),
		ISO3:         d.str(),
		Name:         d.str(),
		Capital:      d.str(),
		AreaSqKm:     d.f64(),
		Population:   d.str(),
		Continent:    d.str(),
		TLD:          d.str(),
		CurrencyCode: d.str(),
		CurrencyName: d.str(),
		Phone:        d.str(),
		Languages:    d.str(),
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalAdminDivision serializes an AdminDivision to bytes.
func MarshalAdminDivision(a *core.AdminDivision) []byte {
	size := ord.String.Size(a.Code) + ord.String.Size(a.Name) + ord.String.Size(a.NameASCII)
	e := encoder{bs: make([]byte, size)}
	e.str(a.Code)
	e.str(a.Name)
	e.str(a.NameASCII)
	return e.bs
}

// UnmarshalAdminDivision deserializes an AdminDivision from bytes.
func UnmarshalAdminDivision(data []byte) (*core.AdminDivision, error) {
	d := decoder{bs: data}
	a := &core.AdminDivision{
		Code:      d.str(),
		Name:      d.str(),
		NameASCII: d.str(),
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return a, nil
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(emb *core.Embedding) []byte {
	e := encoder{bs: make([]byte, ord.String.Size(emb.Name)+vecSize(emb.Vector))}
	e.str(emb.Name)
	e.vec(emb.Vector)
	return e.bs
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	d := decoder{bs: data}
	emb := &core.Embedding{
		Name:   d.str(),
		Vector: d.vec(),
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return emb, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
// UpdatedAt is stored with microsecond precision.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	micros := checkpoint.UpdatedAt.UnixMicro()
	size := ord.String.Size(checkpoint.Stage) +
		ord.String.Size(checkpoint.Model) +
		varint.Int64.Size(int64(checkpoint.Count)) +
		varint.Int64.Size(micros)
	e := encoder{bs: make([]byte, size)}
	e.str(checkpoint.Stage)
	e.str(checkpoint.Model)
	e.i64(int64(checkpoint.Count))
	e.i64(micros)
	return e.bs
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	d := decoder{bs: data}
	checkpoint := &core.Checkpoint{
		Stage: d.str(),
		Model: d.str(),
		Count: int(d.i64()),
	}
	micros := d.i64()
	if err := d.done(); err != nil {
		return nil, err
	}
	checkpoint.UpdatedAt = time.UnixMicro(micros).UTC()
	return checkpoint, nil
}
