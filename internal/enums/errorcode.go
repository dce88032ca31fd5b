package enums

// ErrorCode is the fine-grained error classification carried by the
// ErrorCode result record and signal (§3.2, §3.3, §7). Upstream defines
// close to 90 kinds; this table carries the ones this broker's core
// itself can raise or needs to forward, plus ErrCodeUnknown as a
// catch-all for anything a backend reports that isn't named here.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeOom
	ErrCodeNoNetwork
	ErrCodeNotSupported
	ErrCodeInternalError
	ErrCodeGpgFailure
	ErrCodeBadGpgSignature
	ErrCodeMissingGpgSignature
	ErrCodeCannotInstallRepoUnsigned
	ErrCodeCannotUpdateRepoUnsigned
	ErrCodeTransactionCancelled
	ErrCodePackageIDInvalid
	ErrCodeSearchInvalid
	ErrCodeFilterInvalid
	ErrCodeInvalidProvide
	ErrCodeInputInvalid
	ErrCodePackInvalid
	ErrCodeNoSuchFile
	ErrCodeMimeTypeNotSupported
	ErrCodeNoSuchDirectory
	ErrCodeFileConflicts
	ErrCodePackageAlreadyInstalled
	ErrCodePackageNotInstalled
	ErrCodePackageNotFound
	ErrCodeDepResolutionFailed
	ErrCodeRepoNotFound
	ErrCodeRepoConfigurationError
	ErrCodeCannotGetLock
	ErrCodeCannotCancel
	ErrCodeNotAuthorized
	ErrCodeNoLicenseAgreement
	ErrCodeFailedInitialization
	ErrCodeFailedFinalise
	ErrCodeFailedConfigParsing
	ErrCodeLocalInstallFailed
	ErrCodeRestrictedDownload
	ErrCodeNoMoreMirrorsToTry
	ErrCodeCannotFetchSources
	ErrCodeUpdateNotFound
	ErrCodeUnfinishedTransaction
	ErrCodeLockRequired
)

var errorCodeTokens = map[ErrorCode]string{
	ErrCodeUnknown:                   "unknown",
	ErrCodeOom:                       "oom",
	ErrCodeNoNetwork:                 "no-network",
	ErrCodeNotSupported:              "not-supported",
	ErrCodeInternalError:             "internal-error",
	ErrCodeGpgFailure:                "gpg-failure",
	ErrCodeBadGpgSignature:           "bad-gpg-signature",
	ErrCodeMissingGpgSignature:       "missing-gpg-signature",
	ErrCodeCannotInstallRepoUnsigned: "cannot-install-repo-unsigned",
	ErrCodeCannotUpdateRepoUnsigned:  "cannot-update-repo-unsigned",
	ErrCodeTransactionCancelled:      "transaction-cancelled",
	ErrCodePackageIDInvalid:          "package-id-invalid",
	ErrCodeSearchInvalid:             "search-invalid",
	ErrCodeFilterInvalid:             "filter-invalid",
	ErrCodeInvalidProvide:            "invalid-provide",
	ErrCodeInputInvalid:              "input-invalid",
	ErrCodePackInvalid:               "pack-invalid",
	ErrCodeNoSuchFile:                "no-such-file",
	ErrCodeMimeTypeNotSupported:      "mime-type-not-supported",
	ErrCodeNoSuchDirectory:           "no-such-directory",
	ErrCodeFileConflicts:             "file-conflicts",
	ErrCodePackageAlreadyInstalled:   "package-already-installed",
	ErrCodePackageNotInstalled:       "package-not-installed",
	ErrCodePackageNotFound:           "package-not-found",
	ErrCodeDepResolutionFailed:       "dep-resolution-failed",
	ErrCodeRepoNotFound:              "repo-not-found",
	ErrCodeRepoConfigurationError:    "repo-configuration-error",
	ErrCodeCannotGetLock:             "cannot-get-lock",
	ErrCodeCannotCancel:              "cannot-cancel",
	ErrCodeNotAuthorized:             "not-authorized",
	ErrCodeNoLicenseAgreement:        "no-license-agreement",
	ErrCodeFailedInitialization:      "failed-initialization",
	ErrCodeFailedFinalise:            "failed-finalise",
	ErrCodeFailedConfigParsing:       "failed-config-parsing",
	ErrCodeLocalInstallFailed:        "local-install-failed",
	ErrCodeRestrictedDownload:        "restricted-download",
	ErrCodeNoMoreMirrorsToTry:        "no-more-mirrors-to-try",
	ErrCodeCannotFetchSources:        "cannot-fetch-sources",
	ErrCodeUpdateNotFound:            "update-not-found",
	ErrCodeUnfinishedTransaction:     "unfinished-transaction",
	ErrCodeLockRequired:              "lock-required",
}

var errorCodeFromToken = reverseTokens(errorCodeTokens)

func (e ErrorCode) String() string {
	if v, ok := errorCodeTokens[e]; ok {
		return v
	}
	return "unknown"
}

// ParseErrorCode parses a kebab-case wire token into an ErrorCode.
// Unrecognized tokens map to ErrCodeUnknown rather than failing, since a
// backend may report a code this table hasn't enumerated.
func ParseErrorCode(s string) ErrorCode {
	if v, ok := errorCodeFromToken[s]; ok {
		return v
	}
	return ErrCodeUnknown
}
