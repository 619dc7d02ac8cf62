// Package hds200 is the instrument layer for OWON HDS-series handheld
// oscilloscopes. It owns the SCPI command catalogue for the settings this
// tool touches and the conversions between instrument readings and
// engineering units. Wire mechanics live in the scpi package.
//
// Command reference:
// https://files.owon.com.cn/software/Application/HDS200_Series_SCPI_Protocol.pdf
package hds200
