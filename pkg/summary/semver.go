package summary

import "github.com/Masterminds/semver/v3"

// DetectRelease interprets the window refs as semantic versions and
// reports the bump between them. Returns nil when either ref is not a
// version, which is the common case for branch or SHA refs.
func DetectRelease(fromRef, toRef string) *ReleaseInfo {
	from, err := semver.NewVersion(fromRef)
	if err != nil {
		return nil
	}
	to, err := semver.NewVersion(toRef)
	if err != nil {
		return nil
	}

	info := &ReleaseInfo{From: from.String(), To: to.String()}
	switch {
	case to.LessThan(from):
		info.Bump = "downgrade"
	case to.Major() != from.Major():
		info.Bump = "major"
	case to.Minor() != from.Minor():
		info.Bump = "minor"
	case to.Patch() != from.Patch():
		info.Bump = "patch"
	case to.Prerelease() != from.Prerelease():
		info.Bump = "prerelease"
	default:
		info.Bump = "none"
	}
	return info
}
