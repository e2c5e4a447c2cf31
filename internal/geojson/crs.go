package geojson

import "strings"

// NormalizeCRSName maps the URN form of a CRS declaration to the
// AUTHORITY:CODE form, e.g. "urn:ogc:def:crs:EPSG::3946" -> "EPSG:3946".
// Already-normalized names pass through unchanged. The OGC CRS84 alias
// is mapped to EPSG:4326 since both are geographic WGS84.
func NormalizeCRSName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(name), "urn:ogc:def:crs:") {
		rest := name[len("urn:ogc:def:crs:"):]
		parts := strings.Split(rest, ":")
		if len(parts) >= 2 {
			authority := parts[0]
			code := parts[len(parts)-1]
			if strings.EqualFold(authority, "OGC") && strings.EqualFold(code, "CRS84") {
				return "EPSG:4326"
			}
			return strings.ToUpper(authority) + ":" + code
		}
		return name
	}

	if strings.EqualFold(name, "OGC:CRS84") || strings.EqualFold(name, "CRS84") {
		return "EPSG:4326"
	}

	if idx := strings.Index(name, ":"); idx > 0 {
		return strings.ToUpper(name[:idx]) + name[idx:]
	}

	return name
}
