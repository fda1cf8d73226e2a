package platform

// ExtractorInstallHint returns the command that installs the 7z tool on the
// given platform, or an empty string when no hint is known.
func ExtractorInstallHint(info *Info) string {
	if info == nil {
		return ""
	}
	if info.IsMacOS() {
		return "brew install p7zip"
	}
	if !info.IsLinux() {
		return ""
	}

	switch info.Family {
	case FamilyDebian:
		return "sudo apt install p7zip-full"
	case FamilyFedora, FamilyRHEL:
		return "sudo dnf install p7zip p7zip-plugins"
	case FamilySUSE:
		return "sudo zypper install p7zip-full"
	case FamilyArch:
		return "sudo pacman -S p7zip"
	case FamilyAlpine:
		return "sudo apk add p7zip"
	default:
		return ""
	}
}
