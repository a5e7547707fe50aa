package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogo/protobuf/proto"
)

var (
	// DefaultIBCVersionIdentifier is the IBC v1.0.0 protocol version identifier
	DefaultIBCVersionIdentifier = "1"

	// DefaultIBCVersion represents the latest supported version of IBC used
	// in connection version negotiation. The current version supports only
	// ORDERED and UNORDERED channels and requires at least one channel type
	// to be agreed upon.
	DefaultIBCVersion = NewVersion(DefaultIBCVersionIdentifier, []string{"ORDER_ORDERED", "ORDER_UNORDERED"})
)

// Version defines the versioning scheme used to negotiate the IBC version in
// the connection handshake.
type Version struct {
	// unique version identifier
	Identifier string `protobuf:"bytes,1,opt,name=identifier,proto3" json:"identifier,omitempty"`
	// list of features compatible with the specified identifier
	Features []string `protobuf:"bytes,2,rep,name=features,proto3" json:"features,omitempty"`
}

func (v *Version) Reset()         { *v = Version{} }
func (v *Version) String() string { return proto.CompactTextString(v) }
func (*Version) ProtoMessage()    {}

// NewVersion returns a new instance of Version.
func NewVersion(identifier string, features []string) *Version {
	return &Version{
		Identifier: identifier,
		Features:   features,
	}
}

// GetCompatibleVersions returns a descending ordered set of compatible IBC
// versions for the caller chain's connection end. The latest supported
// version should be first element and the set should descend to the oldest
// supported version.
func GetCompatibleVersions() []*Version {
	return []*Version{DefaultIBCVersion}
}

// ValidateVersion does basic validation of the version identifier and
// features. It unmarshals the version string into a Version object.
func ValidateVersion(version *Version) error {
	if version == nil {
		return fmt.Errorf("%w: version cannot be nil", ErrInvalidVersion)
	}
	if strings.TrimSpace(version.Identifier) == "" {
		return fmt.Errorf("%w: version identifier cannot be blank", ErrInvalidVersion)
	}
	for i, feature := range version.Features {
		if strings.TrimSpace(feature) == "" {
			return fmt.Errorf("%w: feature cannot be blank, index %d", ErrInvalidVersion, i)
		}
	}
	return nil
}

// ValidateVersions validates a proposed version list and rejects duplicate
// identifiers, which would make negotiation depend on list order.
func ValidateVersions(versions []*Version) error {
	if len(versions) == 0 {
		return fmt.Errorf("%w: empty version list", ErrInvalidVersion)
	}
	seen := make(map[string]struct{}, len(versions))
	for _, version := range versions {
		if err := ValidateVersion(version); err != nil {
			return err
		}
		if _, ok := seen[version.Identifier]; ok {
			return fmt.Errorf("%w: duplicate version identifier %q", ErrInvalidVersion, version.Identifier)
		}
		seen[version.Identifier] = struct{}{}
	}
	return nil
}

// VerifyProposedVersion verifies that the entire feature set in the
// proposed version is supported by this chain. If the feature set is
// empty it verifies that this is allowed for the specified version
// identifier.
func (v Version) VerifyProposedVersion(proposedVersion *Version) error {
	if proposedVersion == nil {
		return fmt.Errorf("%w: proposed version cannot be nil", ErrInvalidVersion)
	}
	if proposedVersion.Identifier != v.Identifier {
		return ErrVersionNotSupported{Version: proposedVersion}
	}
	if len(proposedVersion.Features) == 0 {
		return fmt.Errorf("%w: version %s has an empty feature set", ErrVersionNotSupported{Version: proposedVersion}, proposedVersion.Identifier)
	}
	for _, proposedFeature := range proposedVersion.Features {
		if !contains(proposedFeature, v.Features) {
			return ErrVersionNotSupported{Version: proposedVersion}
		}
	}
	return nil
}

// VerifySupportedFeature takes in a version and feature string and returns
// true if the feature is supported by the version and false otherwise.
func VerifySupportedFeature(version *Version, feature string) bool {
	if version == nil {
		return false
	}
	return contains(feature, version.Features)
}

// IsSupportedVersion returns true if the proposed version has a matching
// version identifier and its entire feature set is supported or the version
// identifier supports an empty feature set.
func IsSupportedVersion(supportedVersions []*Version, proposedVersion *Version) bool {
	if proposedVersion == nil {
		return false
	}
	supportedVersion, found := FindSupportedVersion(proposedVersion, supportedVersions)
	if !found {
		return false
	}
	return supportedVersion.VerifyProposedVersion(proposedVersion) == nil
}

// FindSupportedVersion returns the version with a matching version
// identifier if it exists. The returned boolean is true if the version is
// found and false otherwise.
func FindSupportedVersion(version *Version, supportedVersions []*Version) (*Version, bool) {
	for _, supportedVersion := range supportedVersions {
		if supportedVersion.Identifier == version.Identifier {
			return supportedVersion, true
		}
	}
	return nil, false
}

// PickVersion iterates over the descending ordered set of compatible IBC
// versions and selects the first version with a version identifier that is
// supported by the counterparty. The returned version contains a feature
// set with the intersection of the features supported by the source and
// counterparty chains. If the feature set intersection is nil and this is
// not allowed for the chosen version identifier then the search for a
// compatible version continues. The result does not depend on the order of
// either list: candidates are ordered by identifier and the smallest wins.
func PickVersion(supportedVersions, counterpartyVersions []*Version) (*Version, error) {
	var candidates []*Version
	for _, supportedVersion := range supportedVersions {
		counterpartyVersion, found := FindSupportedVersion(supportedVersion, counterpartyVersions)
		if !found {
			continue
		}
		featureSet := GetFeatureSetIntersection(supportedVersion.Features, counterpartyVersion.Features)
		if len(featureSet) == 0 {
			continue
		}
		candidates = append(candidates, NewVersion(supportedVersion.Identifier, featureSet))
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: failed to find a matching counterparty version %v from the supported version list %v",
			ErrNoCommonVersion, counterpartyVersions, supportedVersions)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Identifier < candidates[j].Identifier
	})
	return candidates[0], nil
}

// GetFeatureSetIntersection returns the intersections of source feature set
// and the counterparty feature set, sorted. This is done by iterating over
// all the features in the source version and seeing if they exist in the
// feature set for the counterparty version.
func GetFeatureSetIntersection(sourceFeatureSet, counterpartyFeatureSet []string) (featureSet []string) {
	for _, feature := range sourceFeatureSet {
		if contains(feature, counterpartyFeatureSet) && !contains(feature, featureSet) {
			featureSet = append(featureSet, feature)
		}
	}
	sort.Strings(featureSet)
	return featureSet
}

func contains(elem string, set []string) bool {
	for _, element := range set {
		if elem == element {
			return true
		}
	}
	return false
}
