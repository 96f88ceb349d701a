// Copyright 2017-25 the original author or authors.
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

package decoder

import (
	"fmt"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

func decodeInfo(r FieldResolver, info *pb.Info) *model.Info {
	if info == nil {
		return nil
	}

	i := &model.Info{
		Version:   info.GetVersion(),
		UID:       model.UID(info.GetUid()),
		Timestamp: r.ResolveTimestamp(info.GetTimestamp()),
		Changeset: info.GetChangeset(),
		Visible:   true,
	}

	i.User, _ = r.ResolveString(int64(info.GetUserSid()))

	if info.Visible != nil {
		i.Visible = info.GetVisible()
	}

	return i
}

// denseInfo decodes the metadata of dense nodes.  All fields but version are
// delta coded; the accumulators persist across the whole group.  Every column
// is optional: an absent column leaves its field zero for every node.
type denseInfo struct {
	resolver FieldResolver

	versions     []int32
	timestamps   []int64
	changesets   []int64
	uids         []int32
	userSids     []int32
	visibilities []bool

	timestamp int64
	changeset int64
	uid       int32
	userSid   int32
}

// newDenseInfo returns nil when the group carries no metadata.
func newDenseInfo(r FieldResolver, di *pb.DenseInfo, n int) (*denseInfo, error) {
	if di == nil {
		return nil, nil
	}

	d := &denseInfo{resolver: r}

	var err error

	if d.versions, err = column("version", di.GetVersion(), n); err != nil {
		return nil, err
	}

	if d.timestamps, err = column("timestamp", di.GetTimestamp(), n); err != nil {
		return nil, err
	}

	if d.changesets, err = column("changeset", di.GetChangeset(), n); err != nil {
		return nil, err
	}

	if d.uids, err = column("uid", di.GetUid(), n); err != nil {
		return nil, err
	}

	if d.userSids, err = column("user_sid", di.GetUserSid(), n); err != nil {
		return nil, err
	}

	if d.visibilities, err = column("visible", di.GetVisible(), n); err != nil {
		return nil, err
	}

	if d.versions == nil && d.timestamps == nil && d.changesets == nil &&
		d.uids == nil && d.userSids == nil {
		return nil, nil
	}

	return d, nil
}

// column returns values when it holds one value per node and nil when the
// column is absent.
func column[T any](name string, values []T, n int) ([]T, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case n:
		return values, nil
	default:
		return nil, fmt.Errorf("%w: dense info has %d %s values for %d nodes", ErrMalformedBlock, len(values), name, n)
	}
}

func (d *denseInfo) next(i int) *model.Info {
	if d == nil {
		return nil
	}

	info := &model.Info{Visible: true}

	if d.versions != nil {
		info.Version = d.versions[i]
	}

	if d.timestamps != nil {
		d.timestamp += d.timestamps[i]
		info.Timestamp = d.resolver.ResolveTimestamp(d.timestamp)
	}

	if d.changesets != nil {
		d.changeset += d.changesets[i]
		info.Changeset = d.changeset
	}

	if d.uids != nil {
		d.uid += d.uids[i]
		info.UID = model.UID(d.uid)
	}

	if d.userSids != nil {
		d.userSid += d.userSids[i]
		info.User, _ = d.resolver.ResolveString(int64(d.userSid))
	}

	if d.visibilities != nil {
		info.Visible = d.visibilities[i]
	}

	return info
}
