// Package contracts holds the ABI fragments the oracle needs. Only the
// functions we actually call are included; the full contract interfaces live
// with the contract repo.
package contracts

// MarketplaceABI covers campaign reads and lifecycle transitions.
const MarketplaceABI = `[
  {
    "type": "function",
    "name": "getCampaignInfo",
    "stateMutability": "view",
    "inputs": [{"name": "campaignId", "type": "bytes32"}],
    "outputs": [
      {"name": "id", "type": "bytes32"},
      {"name": "name", "type": "string"},
      {"name": "creator", "type": "address"},
      {"name": "kol", "type": "address"},
      {"name": "offerDeadline", "type": "uint256"},
      {"name": "promotionDeadline", "type": "uint256"},
      {"name": "amount", "type": "uint256"},
      {"name": "status", "type": "uint8"}
    ]
  },
  {
    "type": "function",
    "name": "getAllCampaigns",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "bytes32[]"}]
  },
  {
    "type": "function",
    "name": "acceptProjectCampaign",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "campaignId", "type": "bytes32"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "fulfilProjectCampaign",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "campaignId", "type": "bytes32"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "discardCampaign",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "campaignId", "type": "bytes32"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "unfulfillCampaign",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "campaignId", "type": "bytes32"}],
    "outputs": []
  }
]`

// TokenABI is the ERC-20 subset used for settlement transfers.
const TokenABI = `[
  {
    "type": "function",
    "name": "transfer",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "to", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  }
]`
