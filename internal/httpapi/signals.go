package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

// signalName maps an EventKind to the bus signal name it carries on
// the wire (§4.5, §6.3).
func signalName(kind backend.EventKind) string {
	switch kind {
	case backend.EventPackage:
		return "Package"
	case backend.EventDetails:
		return "Details"
	case backend.EventUpdateDetail:
		return "UpdateDetail"
	case backend.EventFiles:
		return "Files"
	case backend.EventRepoDetail:
		return "RepoDetail"
	case backend.EventCategory:
		return "Category"
	case backend.EventDistroUpgrade:
		return "DistroUpgrade"
	case backend.EventRequireRestart:
		return "RequireRestart"
	case backend.EventRepoSignatureRequired:
		return "RepoSignatureRequired"
	case backend.EventEulaRequired:
		return "EulaRequired"
	case backend.EventMediaChangeRequired:
		return "MediaChangeRequired"
	case backend.EventErrorCode:
		return "ErrorCode"
	case backend.EventItemProgress:
		return "ItemProgress"
	case backend.EventSetPercentage, backend.EventSetStatus, backend.EventSetAllowCancel,
		backend.EventSetSpeed, backend.EventSetDownloadSizeRemaining:
		return "PropertiesChanged"
	case backend.EventFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// signalPayload renders ev.Payload as a JSON-safe value, translating
// every enum-typed field to its kebab-case wire token via String() and
// every pkgid.ID to its canonical string form, since none of those
// types carry their own MarshalJSON.
func signalPayload(ev backend.Event) any {
	switch v := ev.Payload.(type) {
	case results.Package:
		return gin.H{
			"package-id": v.PackageID.String(),
			"info":       v.Info.String(),
			"summary":    v.Summary,
		}
	case results.Details:
		return gin.H{
			"package-id":    v.PackageID.String(),
			"license":       v.License,
			"group":         v.Group.String(),
			"description":   v.Description,
			"url":           v.URL,
			"size":          v.Size,
			"download-size": v.DownloadSize,
		}
	case results.UpdateDetail:
		return gin.H{
			"package-id":  v.PackageID.String(),
			"update-text": v.UpdateText,
			"changelog":   v.Changelog,
			"restart":     v.Restart.String(),
			"state":       v.State.String(),
		}
	case results.Files:
		return gin.H{"package-id": v.PackageID.String(), "files": v.Files}
	case results.RepoDetail:
		return gin.H{"repo-id": v.RepoID, "description": v.Description, "enabled": v.Enabled}
	case results.Category:
		return gin.H{"parent-id": v.ParentID, "cat-id": v.CatID, "name": v.Name, "summary": v.Summary, "icon": v.Icon}
	case results.DistroUpgrade:
		return gin.H{"state": v.State.String(), "name": v.Name, "summary": v.Summary}
	case results.RequireRestart:
		return gin.H{"restart": v.Restart.String(), "package-id": v.PackageID.String()}
	case results.RepoSignatureRequired:
		return gin.H{
			"package-id": v.PackageID.String(),
			"repo-name":  v.RepoName,
			"key-url":    v.KeyURL,
			"key-userid": v.KeyUserID,
			"key-id":     v.KeyID,
			"sig-type":   v.SigType.String(),
		}
	case results.EulaRequired:
		return gin.H{
			"eula-id":           v.EulaID,
			"package-id":        v.PackageID.String(),
			"vendor-name":       v.VendorName,
			"license-agreement": v.LicenseAgreement,
		}
	case results.MediaChangeRequired:
		return gin.H{"media-type": v.MediaType.String(), "media-id": v.MediaID, "media-text": v.MediaText}
	case results.ErrorRecord:
		return gin.H{"code": v.Code.String(), "details": v.Details}
	case results.ItemProgress:
		return gin.H{
			"package-id": v.PackageID.String(),
			"status":     v.Status.String(),
			"percentage": percentageWire(v.Percentage, v.Unknown),
		}
	case int:
		return gin.H{"percentage": v}
	case bool:
		return gin.H{"allow-cancel": v}
	case uint32:
		return gin.H{"speed": v}
	case uint64:
		return gin.H{"download-size-remaining": v}
	default:
		if s, ok := any(v).(interface{ String() string }); ok {
			return gin.H{"value": s.String()}
		}
		return gin.H{}
	}
}
