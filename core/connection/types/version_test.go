package types_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tendermint/ibc/core/connection/types"
)

func TestValidateVersion(t *testing.T) {
	testCases := []struct {
		name    string
		version *types.Version
		expPass bool
	}{
		{"valid version", types.DefaultIBCVersion, true},
		{"valid empty feature set", types.NewVersion(types.DefaultIBCVersionIdentifier, []string{}), true},
		{"nil version", nil, false},
		{"empty version identifier", types.NewVersion("       ", []string{"ORDER_UNORDERED"}), false},
		{"empty feature", types.NewVersion(types.DefaultIBCVersionIdentifier, []string{"ORDER_UNORDERED", "   "}), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := types.ValidateVersion(tc.version)
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, types.ErrInvalidVersion)
			}
		})
	}
}

func TestValidateVersionsRejectsDuplicates(t *testing.T) {
	versions := []*types.Version{
		types.NewVersion("1", []string{"ORDER_ORDERED"}),
		types.NewVersion("1", []string{"ORDER_UNORDERED"}),
	}
	require.ErrorIs(t, types.ValidateVersions(versions), types.ErrInvalidVersion)
	require.ErrorIs(t, types.ValidateVersions(nil), types.ErrInvalidVersion)
	require.NoError(t, types.ValidateVersions(types.GetCompatibleVersions()))
}

func TestIsSupportedVersion(t *testing.T) {
	testCases := []struct {
		name    string
		version *types.Version
		expPass bool
	}{
		{"version is supported", types.GetCompatibleVersions()[0], true},
		{"version is not supported", types.NewVersion("2", []string{"ORDER_ORDERED"}), false},
		{"version feature is not supported", types.NewVersion(types.DefaultIBCVersionIdentifier, []string{"ORDER_DAG"}), false},
		{"version feature set is empty", types.NewVersion(types.DefaultIBCVersionIdentifier, nil), false},
		{"nil version", nil, false},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expPass, types.IsSupportedVersion(types.GetCompatibleVersions(), tc.version), tc.name)
	}
}

func TestPickVersion(t *testing.T) {
	testCases := []struct {
		name                 string
		supportedVersions    []*types.Version
		counterpartyVersions []*types.Version
		expVer               *types.Version
	}{
		{"valid default ibc version", types.GetCompatibleVersions(), types.GetCompatibleVersions(), types.DefaultIBCVersion},
		{
			"valid version in counterparty versions",
			types.GetCompatibleVersions(),
			[]*types.Version{types.NewVersion("version1", nil), types.NewVersion("2.0.0", []string{"ORDER_UNORDERED-ZK"}), types.DefaultIBCVersion},
			types.DefaultIBCVersion,
		},
		{
			"valid identifier match but empty feature set not allowed",
			types.GetCompatibleVersions(),
			[]*types.Version{types.NewVersion(types.DefaultIBCVersionIdentifier, []string{"DAG", "ORDERED-ZK", "UNORDERED-zk]"})},
			nil,
		},
		{
			"feature intersection is chosen",
			types.GetCompatibleVersions(),
			[]*types.Version{types.NewVersion(types.DefaultIBCVersionIdentifier, []string{"ORDER_UNORDERED"})},
			types.NewVersion(types.DefaultIBCVersionIdentifier, []string{"ORDER_UNORDERED"}),
		},
		{
			"smallest common identifier wins",
			[]*types.Version{types.NewVersion("2", []string{"ORDER_ORDERED"}), types.NewVersion("1", []string{"ORDER_ORDERED"})},
			[]*types.Version{types.NewVersion("1", []string{"ORDER_ORDERED"}), types.NewVersion("2", []string{"ORDER_ORDERED"})},
			types.NewVersion("1", []string{"ORDER_ORDERED"}),
		},
		{"empty counterparty versions", types.GetCompatibleVersions(), []*types.Version{}, nil},
		{"non-matching counterparty versions", types.GetCompatibleVersions(), []*types.Version{types.NewVersion("2.0.0", nil)}, nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			version, err := types.PickVersion(tc.supportedVersions, tc.counterpartyVersions)
			if tc.expVer == nil {
				require.True(t, errors.Is(err, types.ErrNoCommonVersion))
				require.Nil(t, version)
				return
			}
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(tc.expVer, version))
		})
	}
}

var (
	versionIdentifiers = []string{"1", "2", "3", "4"}
	versionFeatures    = []string{"ORDER_ORDERED", "ORDER_UNORDERED", "ORDER_DAG"}
)

func drawVersions(t *rapid.T, label string) []*types.Version {
	ids := rapid.SliceOfDistinct(rapid.SampledFrom(versionIdentifiers), func(s string) string { return s }).
		Draw(t, label+"_ids").([]string)
	versions := make([]*types.Version, 0, len(ids))
	for _, id := range ids {
		features := rapid.SliceOfDistinct(rapid.SampledFrom(versionFeatures), func(s string) string { return s }).
			Draw(t, label+"_features").([]string)
		versions = append(versions, types.NewVersion(id, features))
	}
	return versions
}

func shuffle(t *rapid.T, label string, versions []*types.Version) []*types.Version {
	out := append([]*types.Version{}, versions...)
	for i := len(out) - 1; i > 0; i-- {
		j := rapid.IntRange(0, i).Draw(t, label).(int)
		out[i], out[j] = out[j], out[i]
	}
	for i, v := range out {
		features := append([]string{}, v.Features...)
		for k := len(features) - 1; k > 0; k-- {
			j := rapid.IntRange(0, k).Draw(t, label+"_features").(int)
			features[k], features[j] = features[j], features[k]
		}
		out[i] = types.NewVersion(v.Identifier, features)
	}
	return out
}

func TestPickVersionOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supported := drawVersions(t, "supported")
		counterparty := drawVersions(t, "counterparty")

		expected, expErr := types.PickVersion(supported, counterparty)
		actual, err := types.PickVersion(shuffle(t, "supported_perm", supported), shuffle(t, "counterparty_perm", counterparty))

		if (expErr == nil) != (err == nil) {
			t.Fatalf("outcome depends on list order: %v vs %v", expErr, err)
		}
		if diff := cmp.Diff(expected, actual); diff != "" {
			t.Fatalf("picked version depends on list order (-want +got):\n%s", diff)
		}
		if err == nil {
			if !types.IsSupportedVersion(supported, actual) {
				t.Fatalf("picked version %v is not supported locally", actual)
			}
			if !types.IsSupportedVersion(counterparty, actual) {
				t.Fatalf("picked version %v is not supported by the counterparty", actual)
			}
		}
	})
}
